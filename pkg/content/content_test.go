package content

import (
	"testing"

	"tgbridge/pkg/telegram"
)

func TestExtensionFilenameWins(t *testing.T) {
	cases := []struct {
		mimeType string
		filename string
		want     string
	}{
		{"image/jpeg", "", ".jpg"},
		{"image/png", "report.pdf", ".pdf"},
		{"audio/ogg", "", ".ogg"},
		{"audio/mpeg", "track.mp3", ".mp3"},
		{"", "notes.txt", ".txt"},
		{"application/x-mystery", "", ".bin"},
		{"", "", ".bin"},
		{"image/png", "noextension", ".png"},
	}

	for _, tc := range cases {
		if got := Extension(tc.mimeType, tc.filename); got != tc.want {
			t.Fatalf("Extension(%q, %q) = %q, want %q", tc.mimeType, tc.filename, got, tc.want)
		}
	}
}

func TestNormalizeTextPrefersTextOverCaption(t *testing.T) {
	got := Normalize(&telegram.Message{Text: "body", Caption: "cap"}, nil)
	if got.Kind != KindText || got.Text != "body" {
		t.Fatalf("Normalize = %+v, want text kind with body", got)
	}

	got = Normalize(&telegram.Message{Caption: "cap"}, nil)
	if got.Text != "cap" {
		t.Fatalf("Normalize caption fallback = %q, want %q", got.Text, "cap")
	}

	got = Normalize(&telegram.Message{}, nil)
	if got.Text != "" || got.Kind != KindText {
		t.Fatalf("Normalize empty message = %+v, want empty text", got)
	}
}

func TestNormalizeMimeResolution(t *testing.T) {
	// Explicit mime type wins.
	got := Normalize(&telegram.Message{
		Document: &telegram.Document{MimeType: "application/pdf", FileName: "data.json"},
	}, []byte("x"))
	if got.MimeType != "application/pdf" {
		t.Fatalf("mime = %q, want explicit application/pdf", got.MimeType)
	}

	// Filename extension next.
	got = Normalize(&telegram.Message{
		Document: &telegram.Document{FileName: "photo.png"},
	}, []byte("x"))
	if got.MimeType != "image/png" {
		t.Fatalf("mime = %q, want image/png from filename", got.MimeType)
	}

	// Default last.
	got = Normalize(&telegram.Message{
		Document: &telegram.Document{},
	}, []byte("x"))
	if got.MimeType != "application/octet-stream" {
		t.Fatalf("mime = %q, want octet-stream default", got.MimeType)
	}
}

func TestNormalizeVariantPriority(t *testing.T) {
	msg := &telegram.Message{
		Text:     "t",
		Voice:    &telegram.Voice{FileID: "v"},
		Document: &telegram.Document{FileID: "d"},
	}
	if got := Normalize(msg, []byte("x")); got.Kind != KindVoice {
		t.Fatalf("kind = %q, want voice ahead of document and text", got.Kind)
	}
}

func TestReleaseWithoutBlobIsNoop(t *testing.T) {
	c := Content{Kind: KindText, Text: "hi"}
	c.Release(nil)

	if c.BlobPath != "" {
		t.Fatal("release should leave blobless content untouched")
	}
}

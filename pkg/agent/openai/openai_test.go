package openai

import (
	"testing"

	"tgbridge/pkg/content"
	"tgbridge/pkg/conversation"
)

func TestTurnTextParts(t *testing.T) {
	turn := Turn{Role: RoleUser, Text: "hello"}
	parts := turn.TextParts()
	if len(parts) != 1 || parts[0] != "hello" {
		t.Fatalf("TextParts = %v, want [hello]", parts)
	}

	if parts := (Turn{Role: RoleUser}).TextParts(); parts != nil {
		t.Fatalf("empty turn TextParts = %v, want nil", parts)
	}
}

func TestTurnPriming(t *testing.T) {
	if !(Turn{Role: RoleSystem, Text: "rules"}).Priming() {
		t.Fatal("system turn should be priming")
	}
	if (Turn{Role: RoleUser, Text: "hi"}).Priming() {
		t.Fatal("user turn should not be priming")
	}
}

func TestTurnFromContentImage(t *testing.T) {
	turn := turnFromContent(content.Content{
		Kind:     content.KindImage,
		Text:     "what is this",
		Data:     []byte{0xff, 0xd8},
		MimeType: "image/jpeg",
	})

	if turn.Role != RoleUser || turn.Text != "what is this" {
		t.Fatalf("turn = %+v, want user turn with caption", turn)
	}
	if turn.ImageURL == "" {
		t.Fatal("image content should carry a data URL")
	}
	if want := "data:image/jpeg;base64,"; turn.ImageURL[:len(want)] != want {
		t.Fatalf("image URL = %q, want %q prefix", turn.ImageURL, want)
	}
}

func TestTurnFromContentDocumentMarker(t *testing.T) {
	turn := turnFromContent(content.Content{
		Kind:     content.KindDocument,
		Text:     "summarize",
		Data:     []byte("%PDF"),
		Filename: "report.pdf",
	})

	if turn.Text != "summarize\n\n[Attached file: report.pdf]" {
		t.Fatalf("document turn text = %q", turn.Text)
	}
	if turn.ImageURL != "" {
		t.Fatal("document turn should not carry an image URL")
	}
}

func TestAsTurnsRejectsForeignTypes(t *testing.T) {
	if _, err := asTurns([]conversation.Turn{foreignTurn{}}); err == nil {
		t.Fatal("foreign turn type should be rejected")
	}

	turns, err := asTurns([]conversation.Turn{Turn{Role: RoleUser, Text: "x"}})
	if err != nil || len(turns) != 1 {
		t.Fatalf("asTurns = %v, %v", turns, err)
	}
}

type foreignTurn struct{}

func (foreignTurn) TextParts() []string { return nil }

// Package content normalizes incoming messages into a single canonical record
// and routes each message to the handler for its content variant.
package content

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"tgbridge/pkg/telegram"
)

// Kind names the content variant a message resolved to.
type Kind string

const (
	KindText     Kind = "text"
	KindVoice    Kind = "voice"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

const defaultMimeType = "application/octet-stream"

// Content is the normalized single-owner record handed to the agent.
// When BlobPath is set the payload was staged as a temporary blob and the
// consumer must release it after use.
type Content struct {
	Kind     Kind
	Text     string
	Data     []byte
	MimeType string
	Filename string
	BlobPath string
}

// Deleter releases staged blobs. Satisfied by *blob.Store.
type Deleter interface {
	Delete(path string) error
}

// Release deletes the staged blob, if any. Safe to call repeatedly.
func (c *Content) Release(blobs Deleter) {
	if c.BlobPath == "" || blobs == nil {
		return
	}

	_ = blobs.Delete(c.BlobPath)
	c.BlobPath = ""
}

// ConfigError reports a static misconfiguration, such as a voice message
// arriving while no transcription backend is configured. Never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// RouteError reports a failure while materializing one content variant.
type RouteError struct {
	Kind  Kind
	Cause error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route %s content: %v", e.Kind, e.Cause)
}

func (e *RouteError) Unwrap() error {
	return e.Cause
}

// Normalize converts a message plus already-fetched payload bytes into a
// Content record. Pure: it performs no I/O and always succeeds, possibly with
// empty text. The mime type resolves by priority: the message's explicit mime
// field, then the original filename's extension, then application/octet-stream.
func Normalize(msg *telegram.Message, binary []byte) Content {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	kind, explicitMime, filename := variantOf(msg)
	out := Content{Kind: kind, Text: text}

	if kind == KindText || binary == nil {
		return out
	}

	out.Data = binary
	out.Filename = filename
	out.MimeType = resolveMime(explicitMime, filename)
	return out
}

func variantOf(msg *telegram.Message) (kind Kind, mimeType string, filename string) {
	switch {
	case msg.Voice != nil:
		return KindVoice, msg.Voice.MimeType, ""
	case msg.Audio != nil:
		return KindAudio, msg.Audio.MimeType, msg.Audio.FileName
	case len(msg.Photo) > 0:
		return KindImage, "image/jpeg", ""
	case msg.Document != nil:
		return KindDocument, msg.Document.MimeType, msg.Document.FileName
	default:
		return KindText, "", ""
	}
}

func resolveMime(explicit string, filename string) string {
	if explicit != "" {
		return explicit
	}
	if ext := filepath.Ext(filename); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			// Strip optional parameters such as "; charset=utf-8".
			if i := strings.IndexByte(byExt, ';'); i >= 0 {
				byExt = strings.TrimSpace(byExt[:i])
			}
			return byExt
		}
	}

	return defaultMimeType
}

package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tgbridge/pkg/telegram"
	"tgbridge/pkg/transcribe"
)

// Fetcher is the slice of the transport needed to materialize binary content.
type Fetcher interface {
	ResolveFile(ctx context.Context, fileID string) (telegram.File, error)
	Download(ctx context.Context, filePath string) ([]byte, error)
}

// BlobStore stages downloaded payloads as temporary files.
type BlobStore interface {
	Save(data []byte, suffix string, prefix string) (string, error)
	Delete(path string) error
}

// Router dispatches a message to the handler for its populated content
// variant, in fixed priority order: voice > audio > photo > document > text.
// Exactly one handler runs per message.
type Router struct {
	fetch       Fetcher
	blobs       BlobStore
	transcriber transcribe.Service
	log         *slog.Logger
}

// NewRouter wires the router's collaborators. transcriber may be nil, in
// which case voice and audio messages fail with a ConfigError.
func NewRouter(fetch Fetcher, blobs BlobStore, transcriber transcribe.Service, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		fetch:       fetch,
		blobs:       blobs,
		transcriber: transcriber,
		log:         log.With("component", "content.router"),
	}
}

// Route produces the normalized Content for one message. Image and document
// content comes back with a staged blob the caller must release; voice and
// audio blobs are transient and already deleted on return, success or not.
func (r *Router) Route(ctx context.Context, msg *telegram.Message) (Content, error) {
	switch {
	case msg.Voice != nil:
		return r.routeVoice(ctx, msg)
	case msg.Audio != nil:
		return r.routeAudio(ctx, msg)
	case len(msg.Photo) > 0:
		return r.routePhoto(ctx, msg)
	case msg.Document != nil:
		return r.routeDocument(ctx, msg)
	default:
		return Normalize(msg, nil), nil
	}
}

func (r *Router) routeVoice(ctx context.Context, msg *telegram.Message) (Content, error) {
	if r.transcriber == nil {
		return Content{}, &ConfigError{Reason: "transcription service is not configured"}
	}

	data, err := r.download(ctx, msg.Voice.FileID)
	if err != nil {
		return Content{}, &RouteError{Kind: KindVoice, Cause: err}
	}

	path, err := r.blobs.Save(data, Extension(msg.Voice.MimeType, ""), "voice_")
	if err != nil {
		return Content{}, &RouteError{Kind: KindVoice, Cause: err}
	}
	defer func() { _ = r.blobs.Delete(path) }()

	r.log.Info("Transcribing voice message", "chat_id", msg.Chat.ID, "duration_s", msg.Voice.Duration)

	text, err := r.transcriber.Transcribe(ctx, path)
	if err != nil {
		return Content{}, &RouteError{Kind: KindVoice, Cause: err}
	}

	if msg.Caption != "" {
		text = msg.Caption + "\n\n[Voice transcription]: " + text
	}

	return Content{Kind: KindVoice, Text: text}, nil
}

func (r *Router) routeAudio(ctx context.Context, msg *telegram.Message) (Content, error) {
	if r.transcriber == nil {
		return Content{}, &ConfigError{Reason: "transcription service is not configured"}
	}

	audio := msg.Audio
	data, err := r.download(ctx, audio.FileID)
	if err != nil {
		return Content{}, &RouteError{Kind: KindAudio, Cause: err}
	}

	path, err := r.blobs.Save(data, Extension(audio.MimeType, audio.FileName), "audio_")
	if err != nil {
		return Content{}, &RouteError{Kind: KindAudio, Cause: err}
	}
	defer func() { _ = r.blobs.Delete(path) }()

	r.log.Info("Transcribing audio file", "chat_id", msg.Chat.ID, "file_name", audio.FileName)

	text, err := r.transcriber.Transcribe(ctx, path)
	if err != nil {
		return Content{}, &RouteError{Kind: KindAudio, Cause: err}
	}

	var parts []string
	if msg.Caption != "" {
		parts = append(parts, msg.Caption)
	}
	if audio.Performer != "" || audio.Title != "" {
		var meta []string
		if audio.Performer != "" {
			meta = append(meta, "Artist: "+audio.Performer)
		}
		if audio.Title != "" {
			meta = append(meta, "Title: "+audio.Title)
		}
		parts = append(parts, "[Audio metadata]: "+strings.Join(meta, ", "))
	}
	parts = append(parts, "[Audio transcription]: "+text)

	return Content{
		Kind:     KindAudio,
		Text:     strings.Join(parts, "\n\n"),
		Filename: audio.FileName,
	}, nil
}

func (r *Router) routePhoto(ctx context.Context, msg *telegram.Message) (Content, error) {
	// Largest reported byte size wins; ties keep the first encountered.
	best := msg.Photo[0]
	for _, candidate := range msg.Photo[1:] {
		if candidate.FileSize > best.FileSize {
			best = candidate
		}
	}

	data, err := r.download(ctx, best.FileID)
	if err != nil {
		return Content{}, &RouteError{Kind: KindImage, Cause: err}
	}

	path, err := r.blobs.Save(data, ".jpg", "photo_")
	if err != nil {
		return Content{}, &RouteError{Kind: KindImage, Cause: err}
	}

	r.log.Info("Received photo", "chat_id", msg.Chat.ID, "bytes", len(data))

	out := Normalize(msg, data)
	out.BlobPath = path
	return out, nil
}

func (r *Router) routeDocument(ctx context.Context, msg *telegram.Message) (Content, error) {
	doc := msg.Document
	data, err := r.download(ctx, doc.FileID)
	if err != nil {
		return Content{}, &RouteError{Kind: KindDocument, Cause: err}
	}

	path, err := r.blobs.Save(data, Extension(doc.MimeType, doc.FileName), "doc_")
	if err != nil {
		return Content{}, &RouteError{Kind: KindDocument, Cause: err}
	}

	r.log.Info("Received document", "chat_id", msg.Chat.ID, "file_name", doc.FileName, "bytes", len(data))

	out := Normalize(msg, data)
	out.BlobPath = path
	return out, nil
}

func (r *Router) download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := r.fetch.ResolveFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	data, err := r.fetch.Download(ctx, file.FilePath)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	return data, nil
}

// Package transcribe turns recorded audio into text. The backend is chosen
// once at construction; a nil Service means transcription is disabled.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service converts one audio file into text.
type Service interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendNone   = "none"
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config selects and parameterizes the transcription backend.
type Config struct {
	Service       string `json:"service,omitempty"`
	APIKeyEnv     string `json:"api_key_env,omitempty"`
	Model         string `json:"model,omitempty"`
	WhisperBinary string `json:"whisper_binary,omitempty"`
	WhisperModel  string `json:"whisper_model,omitempty"`
}

// New builds the configured backend. BackendNone (or empty) yields a nil
// Service. A local backend whose binary is missing degrades to disabled with
// a warning rather than failing startup.
func New(cfg Config, log *slog.Logger) (Service, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "transcribe")

	switch strings.ToLower(strings.TrimSpace(cfg.Service)) {
	case "", BackendNone:
		log.Info("Voice transcription disabled")
		return nil, nil
	case BackendLocal:
		svc, err := newWhisperLocal(cfg, log)
		if err != nil {
			log.Warn("Local whisper unavailable, voice transcription disabled", "error", err)
			return nil, nil
		}
		return svc, nil
	case BackendRemote:
		return newRemote(cfg, log)
	default:
		return nil, fmt.Errorf("unknown transcription service %q", cfg.Service)
	}
}

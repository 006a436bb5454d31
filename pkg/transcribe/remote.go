package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// remote transcribes audio through the hosted Whisper API.
type remote struct {
	client osdk.Client
	model  osdk.AudioModel
	log    *slog.Logger
}

func newRemote(cfg Config, log *slog.Logger) (*remote, error) {
	apiKey := resolveAPIKey(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, errors.New("transcription.api_key_env is required or OPENAI_API_KEY must be set")
	}

	model := osdk.AudioModelWhisper1
	if m := strings.TrimSpace(cfg.Model); m != "" {
		model = osdk.AudioModel(m)
	}

	log.Info("Using remote transcription", "model", string(model))

	return &remote{
		client: osdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}, nil
}

func (r *remote) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	resp, err := r.client.Audio.Transcriptions.New(ctx, osdk.AudioTranscriptionNewParams{
		File:  f,
		Model: r.model,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func (r *remote) Close() error {
	return nil
}

func resolveAPIKey(apiKeyEnv string) string {
	if env := strings.TrimSpace(apiKeyEnv); env != "" {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			return key
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

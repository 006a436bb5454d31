package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const defaultWhisperBinary = "whisper-cli"

// whisperLocal shells out to a whisper.cpp style CLI. Telegram voice notes
// arrive as OGG/Opus, so ffmpeg must be present for the CLI to decode them.
type whisperLocal struct {
	binary string
	model  string
	log    *slog.Logger
}

func newWhisperLocal(cfg Config, log *slog.Logger) (*whisperLocal, error) {
	binary := strings.TrimSpace(cfg.WhisperBinary)
	if binary == "" {
		binary = defaultWhisperBinary
	}

	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("whisper binary %q not found in PATH: %w", binary, err)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH (required to decode voice notes): %w", err)
	}

	log.Info("Using local whisper transcription", "binary", binary, "model", cfg.WhisperModel)

	return &whisperLocal{
		binary: binary,
		model:  strings.TrimSpace(cfg.WhisperModel),
		log:    log,
	}, nil
}

func (w *whisperLocal) Transcribe(ctx context.Context, path string) (string, error) {
	args := []string{"--no-timestamps", "--file", path}
	if w.model != "" {
		args = append([]string{"--model", w.model}, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w: %s", w.binary, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (w *whisperLocal) Close() error {
	return nil
}

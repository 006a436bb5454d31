package cmd

import (
	"testing"

	"tgbridge/pkg/config"
	"tgbridge/pkg/transcribe"
)

func TestBuildPumpRequiresToken(t *testing.T) {
	cfg := &config.Config{}
	if _, _, err := buildPump(cfg, nil); err == nil {
		t.Fatal("expected error without a bot token")
	}
}

func TestBuildPumpRejectsUnknownTranscriptionService(t *testing.T) {
	cfg := &config.Config{}
	cfg.Telegram.Token = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw2"
	cfg.Transcription = transcribe.Config{Service: "carrier-pigeon"}

	if _, _, err := buildPump(cfg, nil); err == nil {
		t.Fatal("expected error for unknown transcription service")
	}
}

func TestBuildPumpWiresDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg := &config.Config{}
	cfg.Telegram.Token = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw2"
	cfg.TempDir = t.TempDir()

	p, cleanup, err := buildPump(cfg, nil)
	if err != nil {
		t.Fatalf("buildPump error: %v", err)
	}
	defer cleanup()

	if p == nil {
		t.Fatal("expected a pump instance")
	}
}

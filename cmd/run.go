package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgbridge/pkg/agent/openai"
	"tgbridge/pkg/auth"
	"tgbridge/pkg/blob"
	"tgbridge/pkg/config"
	"tgbridge/pkg/content"
	"tgbridge/pkg/conversation"
	"tgbridge/pkg/logger"
	"tgbridge/pkg/pump"
	"tgbridge/pkg/telegram"
	"tgbridge/pkg/transcribe"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Telegram bridge",
	Long:  "Loads configuration, connects the Telegram bot and serves chats until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			fmt.Printf("invalid config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.run")

		p, cleanup, err := buildPump(cfg, log)
		if err != nil {
			log.Error("Failed to initialize bridge", "error", err)
			return
		}
		defer cleanup()

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-runCtx.Done()
			log.Info("Shutdown requested, draining current batch")
			p.Stop()
		}()

		if err := p.Run(context.Background()); err != nil {
			log.Error("Bridge runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildPump wires the transport, authorization policy, media pipeline, agent
// and conversation store into an update pump. The returned cleanup releases
// resources the pump does not own.
func buildPump(cfg *config.Config, log *slog.Logger) (*pump.Pump, func(), error) {
	client, err := telegram.NewClient(cfg.Telegram.Token, log)
	if err != nil {
		return nil, nil, fmt.Errorf("configure telegram client: %w", err)
	}

	blobs, err := blob.NewStore(cfg.TempDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("configure blob store: %w", err)
	}

	transcriber, err := transcribe.New(cfg.Transcription, log)
	if err != nil {
		return nil, nil, fmt.Errorf("configure transcription: %w", err)
	}

	ag, err := openai.New(cfg.Agent, log)
	if err != nil {
		return nil, nil, fmt.Errorf("configure agent: %w", err)
	}

	policy := auth.NewPolicy(cfg.Telegram.AllowedChatIDs, cfg.Telegram.AllowedUsernames)
	router := content.NewRouter(client, blobs, transcriber, log)
	store := conversation.NewStore(cfg.History.MaxMessages, conversation.NewEstimator(), log)

	opts := pump.Options{
		PollLimit:   cfg.Telegram.PollLimit,
		PollTimeout: time.Duration(cfg.Telegram.PollTimeoutSeconds) * time.Second,
	}

	p, err := pump.New(client, policy, router, ag, store, blobs, opts, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if transcriber != nil {
			_ = transcriber.Close()
		}
	}
	return p, cleanup, nil
}

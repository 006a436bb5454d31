package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tgbridge/pkg/auth"
	"tgbridge/pkg/transcribe"
)

const (
	envBotToken         = "TELEGRAM_BOT_TOKEN"
	envAllowedChatIDs   = "TGBRIDGE_ALLOWED_CHAT_IDS"
	envAllowedUsernames = "TGBRIDGE_ALLOWED_USERNAMES"
	envTempDir          = "TGBRIDGE_TEMP_DIR"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Telegram      TelegramConfig    `json:"telegram"`
	Agent         AgentConfig       `json:"agent"`
	Transcription transcribe.Config `json:"transcription,omitempty"`
	History       HistoryConfig     `json:"history,omitempty"`
	TempDir       string            `json:"temp_dir,omitempty"`
	Logging       LoggingConfig     `json:"logging,omitempty"`
}

// TelegramConfig configures the Bot API transport and the authorization gate.
type TelegramConfig struct {
	Token              string   `json:"token"`
	AllowedChatIDs     []int64  `json:"allowed_chat_ids,omitempty"`
	AllowedUsernames   []string `json:"allowed_usernames,omitempty"`
	PollTimeoutSeconds int      `json:"poll_timeout_seconds,omitempty"`
	PollLimit          int      `json:"poll_limit,omitempty"`
}

// AgentConfig configures the conversational agent collaborator.
type AgentConfig struct {
	Model                 string `json:"model,omitempty"`
	BaseURL               string `json:"base_url,omitempty"`
	APIKeyEnv             string `json:"api_key_env,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
	SystemPrompt          string `json:"system_prompt,omitempty"`
}

// HistoryConfig bounds per-chat conversation history.
type HistoryConfig struct {
	MaxMessages int `json:"max_messages,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// Validate checks the settings the bridge cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required (or set " + envBotToken + ")")
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envBotToken)); token != "" {
		cfg.Telegram.Token = token
	}
	if raw := strings.TrimSpace(os.Getenv(envAllowedChatIDs)); raw != "" {
		cfg.Telegram.AllowedChatIDs = auth.ParseChatIDs(raw)
	}
	if raw := strings.TrimSpace(os.Getenv(envAllowedUsernames)); raw != "" {
		cfg.Telegram.AllowedUsernames = auth.ParseUsernames(raw)
	}
	if dir := strings.TrimSpace(os.Getenv(envTempDir)); dir != "" {
		cfg.TempDir = dir
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is TGBRIDGE_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("TGBRIDGE_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("TGBRIDGE_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}

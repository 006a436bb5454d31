// Package openai implements the agent contract on OpenAI chat completions.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tgbridge/pkg/agent"
	"tgbridge/pkg/config"
	"tgbridge/pkg/content"
	"tgbridge/pkg/conversation"
)

const defaultModel = "gpt-4o"

// Roles a turn can carry in the transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one transcript entry. It satisfies conversation.Turn so the store
// can count tokens without knowing the agent's representation.
type Turn struct {
	Role string
	Text string
	// ImageURL carries a data URL for image turns so follow-up requests keep
	// the picture in context. Empty for plain text turns.
	ImageURL string
}

// TextParts exposes the turn's textual content for token estimation.
func (t Turn) TextParts() []string {
	if t.Text == "" {
		return nil
	}
	return []string{t.Text}
}

// Priming marks the system prompt as exempt from history trimming.
func (t Turn) Priming() bool {
	return t.Role == RoleSystem
}

// Agent calls the chat-completions API with the chat's full transcript.
type Agent struct {
	client         osdk.Client
	model          string
	systemPrompt   string
	requestTimeout time.Duration
	log            *slog.Logger
}

// New constructs the agent from configuration. The API key comes from the
// configured env var, falling back to OPENAI_API_KEY.
func New(cfg config.AgentConfig, log *slog.Logger) (*Agent, error) {
	apiKey := resolveAPIKey(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, errors.New("agent.api_key_env is required or OPENAI_API_KEY must be set")
	}

	if log == nil {
		log = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Agent{
		client:         osdk.NewClient(opts...),
		model:          model,
		systemPrompt:   strings.TrimSpace(cfg.SystemPrompt),
		requestTimeout: requestTimeout,
		log:            log.With("component", "agent.openai"),
	}, nil
}

// Respond sends the prior transcript plus the new input and returns the reply
// together with the full updated transcript.
func (a *Agent) Respond(ctx context.Context, history []conversation.Turn, input content.Content) (agent.Reply, error) {
	turns, err := asTurns(history)
	if err != nil {
		return agent.Reply{}, err
	}

	if len(turns) == 0 && a.systemPrompt != "" {
		turns = append(turns, Turn{Role: RoleSystem, Text: a.systemPrompt})
	}

	userTurn := turnFromContent(input)
	request := append(append([]Turn{}, turns...), userTurn)

	messages := make([]osdk.ChatCompletionMessageParamUnion, 0, len(request))
	for _, turn := range request {
		messages = append(messages, turn.toMessage())
	}
	if input.Kind == content.KindDocument && len(input.Data) > 0 {
		// Documents ride along on the request only; the transcript keeps a
		// textual marker instead of re-uploading the file every turn.
		messages[len(messages)-1] = documentMessage(input)
	}

	startedAt := time.Now()
	a.log.Debug("Agent request started", "model", a.model, "history_turns", len(turns), "input_kind", string(input.Kind))

	resp, err := a.client.Chat.Completions.New(ctx, osdk.ChatCompletionNewParams{
		Model:    osdk.ChatModel(a.model),
		Messages: messages,
	})
	if err != nil {
		a.log.Debug("Agent request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return agent.Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.Reply{}, errors.New("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return agent.Reply{}, errors.New("chat completion returned no text")
	}
	a.log.Debug("Agent request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	updated := append(request, Turn{Role: RoleAssistant, Text: text})
	out := make([]conversation.Turn, len(updated))
	for i, turn := range updated {
		out[i] = turn
	}

	return agent.Reply{Text: text, History: out}, nil
}

func (t Turn) toMessage() osdk.ChatCompletionMessageParamUnion {
	switch t.Role {
	case RoleSystem:
		return osdk.SystemMessage(t.Text)
	case RoleAssistant:
		return osdk.AssistantMessage(t.Text)
	default:
		if t.ImageURL == "" {
			return osdk.UserMessage(t.Text)
		}

		parts := make([]osdk.ChatCompletionContentPartUnionParam, 0, 2)
		if t.Text != "" {
			parts = append(parts, osdk.TextContentPart(t.Text))
		}
		parts = append(parts, osdk.ImageContentPart(osdk.ChatCompletionContentPartImageImageURLParam{URL: t.ImageURL}))
		return osdk.UserMessage(parts)
	}
}

// turnFromContent converts pipeline content into the transcript entry that
// will be persisted for this exchange.
func turnFromContent(input content.Content) Turn {
	turn := Turn{Role: RoleUser, Text: input.Text}

	switch input.Kind {
	case content.KindImage:
		if len(input.Data) > 0 {
			turn.ImageURL = dataURL(input.MimeType, input.Data)
		}
	case content.KindDocument:
		if input.Filename != "" {
			turn.Text = strings.TrimSpace(turn.Text + "\n\n[Attached file: " + input.Filename + "]")
		}
	}

	return turn
}

// documentMessage builds the one-shot request message carrying the document
// bytes as a file part.
func documentMessage(input content.Content) osdk.ChatCompletionMessageParamUnion {
	parts := make([]osdk.ChatCompletionContentPartUnionParam, 0, 2)
	if input.Text != "" {
		parts = append(parts, osdk.TextContentPart(input.Text))
	}

	file := osdk.ChatCompletionContentPartFileFileParam{
		FileData: osdk.String(dataURL(input.MimeType, input.Data)),
	}
	if input.Filename != "" {
		file.Filename = osdk.String(input.Filename)
	}
	parts = append(parts, osdk.FileContentPart(file))

	return osdk.UserMessage(parts)
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// asTurns narrows stored history back to this agent's turn type. History is
// only ever produced by this agent, so a mismatch means cross-wiring.
func asTurns(history []conversation.Turn) ([]Turn, error) {
	turns := make([]Turn, 0, len(history))
	for _, entry := range history {
		turn, ok := entry.(Turn)
		if !ok {
			return nil, fmt.Errorf("unexpected history turn type %T", entry)
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

func resolveAPIKey(apiKeyEnv string) string {
	if env := strings.TrimSpace(apiKeyEnv); env != "" {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			return key
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

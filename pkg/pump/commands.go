package pump

import (
	"context"
	"fmt"

	"tgbridge/pkg/telegram"
)

// Command replies mirror the bot's chat-facing command surface. Anything not
// in the table gets the unknown-command hint.
const (
	startReply = "👋 Hello! I'm your AI assistant.\n\n" +
		"You can send me:\n" +
		"• Text messages\n" +
		"• Voice messages (will be transcribed)\n" +
		"• Images\n" +
		"• Documents\n\n" +
		"Commands:\n" +
		"/reset - Clear conversation history\n" +
		"/tokens - Show token count\n" +
		"/help - Show this message"

	helpReply = "Available commands:\n" +
		"/start - Welcome message\n" +
		"/reset - Clear conversation history\n" +
		"/tokens - Show current token count\n" +
		"/help - Show this message\n\n" +
		"Send me any message and I'll respond!"

	resetReply = "✅ Conversation history cleared!"
)

// handleCommand dispatches one intercepted command. The content pipeline and
// the agent are bypassed entirely.
func (p *Pump) handleCommand(ctx context.Context, name string, msg *telegram.Message) {
	chatID := msg.Chat.ID
	p.log.Info("Handling command", "chat_id", chatID, "command", name)

	switch name {
	case "start":
		p.reply(ctx, msg, startReply)
	case "help":
		p.reply(ctx, msg, helpReply)
	case "reset":
		p.store.Reset(chatID)
		p.reply(ctx, msg, resetReply)
	case "tokens":
		text := fmt.Sprintf(
			"📊 Conversation Statistics:\n• Messages: %d\n• Tokens: %d",
			p.store.MessageCount(chatID),
			p.store.TokenCount(chatID),
		)
		p.reply(ctx, msg, text)
	default:
		p.reply(ctx, msg, fmt.Sprintf("Unknown command: /%s\nUse /help to see available commands.", name))
	}
}

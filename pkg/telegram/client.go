package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

// SendOptions carries the optional parameters of SendText.
type SendOptions struct {
	// ReplyTo references the message the first chunk replies to. Zero means no reply.
	ReplyTo   int
	ParseMode string
}

// Transport is the slice of the Bot API the update pipeline depends on.
// Every method may fail with *Error; callers treat those as transient.
type Transport interface {
	FetchUpdates(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]Update, error)
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
	SendTyping(ctx context.Context, chatID int64) error
	ResolveFile(ctx context.Context, fileID string) (File, error)
	Download(ctx context.Context, filePath string) ([]byte, error)
	GetSelf(ctx context.Context) (User, error)
	Close() error
}

// Client implements Transport on top of the telego Bot API library.
type Client struct {
	bot *telego.Bot
	log *slog.Logger
}

// NewClient validates the bot token and constructs a Bot API client.
func NewClient(token string, log *slog.Logger) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("bot token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Client{
		bot: bot,
		log: log.With("component", "telegram.client"),
	}, nil
}

// FetchUpdates long-polls getUpdates starting at offset, blocking up to timeout.
func (c *Client) FetchUpdates(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]Update, error) {
	secs := int(timeout.Seconds())
	if secs < 0 {
		secs = 0
	}

	raw, err := c.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:  int(offset),
		Limit:   limit,
		Timeout: secs,
	})
	if err != nil {
		return nil, wrapAPIError("getUpdates", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, Update{
			UpdateID:      int64(u.UpdateID),
			Message:       fromTelegoMessage(u.Message),
			EditedMessage: fromTelegoMessage(u.EditedMessage),
		})
	}

	return updates, nil
}

// SendText sends text to a chat, splitting replies that exceed the platform
// limit into multiple messages. Only the first chunk carries the reply-to
// reference.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	chunks := SplitMessage(text, MaxMessageLength)
	if len(chunks) > 1 {
		c.log.Debug("Splitting long message", "chat_id", chatID, "length", len(text), "chunks", len(chunks))
	}

	for i, chunk := range chunks {
		params := tu.Message(tu.ID(chatID), chunk)
		if opts.ParseMode != "" {
			params.ParseMode = opts.ParseMode
		}
		if opts.ReplyTo != 0 && i == 0 {
			params.ReplyParameters = &telego.ReplyParameters{MessageID: opts.ReplyTo}
		}

		if _, err := c.bot.SendMessage(ctx, params); err != nil {
			return wrapAPIError("sendMessage", err)
		}
	}

	return nil
}

// SendTyping sends the typing chat action. Callers treat failures as non-fatal.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	err := c.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping))
	if err != nil {
		return wrapAPIError("sendChatAction", err)
	}

	return nil
}

// ResolveFile exchanges a file_id for a downloadable file path token.
func (c *Client) ResolveFile(ctx context.Context, fileID string) (File, error) {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return File{}, wrapAPIError("getFile", err)
	}
	if file.FilePath == "" {
		return File{}, &Error{Description: "getFile returned no file_path"}
	}

	return File{
		FileID:   file.FileID,
		FileSize: file.FileSize,
		FilePath: file.FilePath,
	}, nil
}

// Download fetches file bytes from the file path token returned by ResolveFile.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	_ = ctx

	data, err := tu.DownloadFile(c.bot.FileDownloadURL(filePath))
	if err != nil {
		return nil, wrapAPIError("download", err)
	}

	return data, nil
}

// GetSelf returns the bot's own identity.
func (c *Client) GetSelf(ctx context.Context) (User, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return User{}, wrapAPIError("getMe", err)
	}

	return User{ID: me.ID, IsBot: me.IsBot, Username: me.Username}, nil
}

// Close releases transport resources. The underlying HTTP client needs no
// explicit shutdown, so this only exists to satisfy the Transport contract.
func (c *Client) Close() error {
	return nil
}

func fromTelegoMessage(m *telego.Message) *Message {
	if m == nil {
		return nil
	}

	out := &Message{
		MessageID: m.MessageID,
		Chat:      Chat{ID: m.Chat.ID, Type: m.Chat.Type},
		Text:      m.Text,
		Caption:   m.Caption,
		ReplyTo:   fromTelegoMessage(m.ReplyToMessage),
	}

	if m.From != nil {
		out.From = &User{ID: m.From.ID, IsBot: m.From.IsBot, Username: m.From.Username}
	}
	if m.Voice != nil {
		out.Voice = &Voice{
			FileID:   m.Voice.FileID,
			Duration: m.Voice.Duration,
			MimeType: m.Voice.MimeType,
			FileSize: m.Voice.FileSize,
		}
	}
	if m.Audio != nil {
		out.Audio = &Audio{
			FileID:    m.Audio.FileID,
			Duration:  m.Audio.Duration,
			Performer: m.Audio.Performer,
			Title:     m.Audio.Title,
			FileName:  m.Audio.FileName,
			MimeType:  m.Audio.MimeType,
			FileSize:  m.Audio.FileSize,
		}
	}
	for _, p := range m.Photo {
		out.Photo = append(out.Photo, PhotoSize{
			FileID:   p.FileID,
			Width:    p.Width,
			Height:   p.Height,
			FileSize: int64(p.FileSize),
		})
	}
	if m.Document != nil {
		out.Document = &Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
			FileSize: m.Document.FileSize,
		}
	}

	return out
}

func wrapAPIError(method string, err error) error {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		return &Error{Code: apiErr.ErrorCode, Description: apiErr.Description}
	}

	return &Error{Description: fmt.Sprintf("%s: %v", method, err)}
}

package telegram

// Wire model for the slice of the Bot API this bridge consumes. Field names
// mirror the API's snake_case fields so the mapping stays obvious.

// User is a Telegram user or bot account.
type User struct {
	ID       int64
	IsBot    bool
	Username string
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64
	Type string
}

// Voice is a recorded voice note.
type Voice struct {
	FileID   string
	Duration int
	MimeType string
	FileSize int64
}

// Audio is an audio file attachment.
type Audio struct {
	FileID    string
	Duration  int
	Performer string
	Title     string
	FileName  string
	MimeType  string
	FileSize  int64
}

// PhotoSize is one resolution variant of a photo.
type PhotoSize struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
}

// Document is a generic file attachment.
type Document struct {
	FileID   string
	FileName string
	MimeType string
	FileSize int64
}

// Message is one incoming chat message. At most one content variant
// (Text, Voice, Audio, Photo, Document) is populated per real message.
type Message struct {
	MessageID int
	From      *User
	Chat      Chat
	Text      string
	Caption   string
	Voice     *Voice
	Audio     *Audio
	Photo     []PhotoSize
	Document  *Document
	ReplyTo   *Message
}

// Update is one long-poll event, uniquely numbered by UpdateID.
type Update struct {
	UpdateID      int64
	Message       *Message
	EditedMessage *Message
}

// Content returns the message carried by the update, preferring the current
// message over an edited one. Nil when the update carries neither.
func (u Update) Content() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}

// File is a server-side file handle resolved from a file_id, ready to download.
type File struct {
	FileID   string
	FileSize int64
	FilePath string
}

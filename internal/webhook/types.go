package webhook

import "time"

// Message kinds accepted in an outbound payload.
const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeImage = "image"
)

// Payload is the outbound message envelope relayed to the workflow webhook.
// A payload is built once per logical send and never mutated; MessageID is
// the idempotency key used for queue dedup.
type Payload struct {
	SessionID string         `json:"sessionId" validate:"required"`
	MessageID string         `json:"messageId" validate:"required"`
	Timestamp string         `json:"timestamp"`
	User      User           `json:"user"`
	Message   MessagePayload `json:"message"`
	Context   *Context       `json:"context,omitempty"`
	// WebhookURL and WebhookSecret are per-request overrides of the
	// configured target. They take priority over any environment default.
	WebhookURL    string `json:"webhookUrl,omitempty"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
}

type User struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name,omitempty"`
}

type MessagePayload struct {
	Type        string `json:"type" validate:"required,oneof=text file image"`
	Content     string `json:"content" validate:"required,min=1,max=10000"`
	Destination string `json:"destination,omitempty"`
	File        *File  `json:"file,omitempty"`
}

type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data string `json:"data,omitempty"` // base64
}

type Context struct {
	PreviousMessages []string `json:"previousMessages,omitempty"`
	UserAgent        string   `json:"userAgent,omitempty"`
	Source           string   `json:"source,omitempty" validate:"omitempty,oneof=web mobile"`
}

// Target is a resolved dispatch destination. Secret may be empty.
type Target struct {
	URL    string
	Secret string
}

// NormalizedResponse is the displayable part extracted from an arbitrary
// webhook reply. An empty Content means no bot message is rendered; that is
// a silent no-op, not an error.
type NormalizedResponse struct {
	Content string
	Source  string
}

// BotMessage is the reply attached to a successful dispatch when the
// extractor found displayable content.
type BotMessage struct {
	Content  string         `json:"content"`
	Type     string         `json:"type"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the normalized outcome of one dispatch. Success without a
// BotMessage is valid: the transport succeeded but the reply carried nothing
// displayable. Failure always carries a human-readable Error.
type Result struct {
	Success    bool        `json:"success"`
	MessageID  string      `json:"messageId"`
	Timestamp  time.Time   `json:"timestamp"`
	BotMessage *BotMessage `json:"botMessage,omitempty"`
	Error      string      `json:"error,omitempty"`
}

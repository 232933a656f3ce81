package chats

import (
	"context"
	"time"
)

// Message roles and delivery statuses.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	StatusSent   = "sent"
	StatusQueued = "queued"
	StatusFailed = "failed"
)

type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one record in a chat's append-only log. Messages are never
// updated or deleted; a bot reply for a queued send arrives as a new append.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	InsertChat(ctx context.Context, chat Chat) error
	GetChat(ctx context.Context, userID, id string) (Chat, bool, error)
	ListChats(ctx context.Context, userID string) ([]Chat, error)
	InsertMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
}

// AppendInput is the input for appending one message to a chat.
type AppendInput struct {
	MessageID string
	ChatID    string
	Role      string
	Content   string
	Source    string
	Status    string
}

package chats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("chat not found")

// Service owns the chat and message records. The message log is append-only.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "chats")),
	}
}

func (s *Service) CreateChat(ctx context.Context, userID, title string) (Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New chat"
	}
	chat := Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertChat(ctx, chat); err != nil {
		return Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return chat, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Chat, error) {
	chat, ok, err := s.store.GetChat(ctx, userID, id)
	if err != nil {
		return Chat{}, err
	}
	if !ok {
		return Chat{}, ErrNotFound
	}
	return chat, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Chat, error) {
	return s.store.ListChats(ctx, userID)
}

func (s *Service) Append(ctx context.Context, input AppendInput) (Message, error) {
	id := strings.TrimSpace(input.MessageID)
	if id == "" {
		id = uuid.NewString()
	}
	msg := Message{
		ID:        id,
		ChatID:    input.ChatID,
		Role:      input.Role,
		Content:   input.Content,
		Source:    input.Source,
		Status:    input.Status,
		CreatedAt: time.Now().UTC(),
	}
	if msg.Status == "" {
		msg.Status = StatusSent
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (s *Service) Messages(ctx context.Context, userID, chatID string) ([]Message, error) {
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, chatID)
}

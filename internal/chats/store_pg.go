package chats

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) InsertChat(ctx context.Context, chat Chat) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chats (id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4)`,
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt)
	return err
}

func (s *PGStore) GetChat(ctx context.Context, userID, id string) (Chat, bool, error) {
	var chat Chat
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, created_at FROM chats
		WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Chat{}, false, nil
	}
	if err != nil {
		return Chat{}, false, err
	}
	return chat, true, nil
}

func (s *PGStore) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, created_at FROM chats
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	return out, rows.Err()
}

func (s *PGStore) InsertMessage(ctx context.Context, msg Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, chat_id, role, content, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.Source, msg.Status, msg.CreatedAt)
	return err
}

func (s *PGStore) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chat_id, role, content, source, status, created_at
		FROM chat_messages WHERE chat_id = $1 ORDER BY created_at, id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content,
			&msg.Source, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

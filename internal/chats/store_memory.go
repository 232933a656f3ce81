package chats

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu       sync.Mutex
	chats    map[string]Chat
	messages map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]Chat),
		messages: make(map[string][]Message),
	}
}

func (s *MemoryStore) InsertChat(_ context.Context, chat Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = chat
	return nil
}

func (s *MemoryStore) GetChat(_ context.Context, userID, id string) (Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return Chat{}, false, nil
	}
	return chat, true, nil
}

func (s *MemoryStore) ListChats(_ context.Context, userID string) ([]Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Chat
	for _, chat := range s.chats {
		if chat.UserID == userID {
			out = append(out, chat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, chatID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages[chatID]))
	copy(out, s.messages[chatID])
	return out, nil
}

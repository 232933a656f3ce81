package targets

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	targets map[string]Target
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{targets: make(map[string]Target)}
}

func (s *MemoryStore) Insert(_ context.Context, target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target.ID] = target
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, userID, id string) (Target, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.targets[id]
	if !ok || target.UserID != userID {
		return Target{}, false, nil
	}
	return target, true, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Target
	for _, target := range s.targets {
		if target.UserID == userID {
			out = append(out, target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target.ID] = target
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target, ok := s.targets[id]; ok && target.UserID == userID {
		delete(s.targets, id)
	}
	return nil
}

func (s *MemoryStore) Activate(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, target := range s.targets {
		if target.UserID != userID {
			continue
		}
		target.IsActive = key == id
		s.targets[key] = target
	}
	return nil
}

func (s *MemoryStore) GetActive(_ context.Context, userID string) (Target, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, target := range s.targets {
		if target.UserID == userID && target.IsActive {
			return target, true, nil
		}
	}
	return Target{}, false, nil
}

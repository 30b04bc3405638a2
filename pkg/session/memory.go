package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and the fill command.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

// Values returns a copy of the session's values.
func (s *MemoryStore) Values(ctx context.Context, sessionID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.sessions[sessionID]))
	for key, value := range s.sessions[sessionID] {
		out[key] = value
	}
	return out, nil
}

// Put merges values into the session; empty values delete their key.
func (s *MemoryStore) Put(ctx context.Context, sessionID string, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.sessions[sessionID]
	if current == nil {
		current = make(map[string]string, len(values))
		s.sessions[sessionID] = current
	}
	for key, value := range values {
		if value == "" {
			delete(current, key)
			continue
		}
		current[key] = value
	}
	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

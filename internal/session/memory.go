package session

import (
	"context"
	"sync"
)

// MemoryStore is the default backend: a map guarded by a mutex. Sessions
// disappear on restart, which the checkout flow tolerates by design.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[Key]*Session)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return New(), nil
	}
	return sess, nil
}

func (s *MemoryStore) Put(ctx context.Context, key Key, sess *Session) error {
	s.mu.Lock()
	s.sessions[key] = sess
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key Key) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

package auth

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process memory. Used by the memory
// backend; tokens do not survive a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
	}
}

func (s *MemorySessionStore) CreateSession(_ context.Context, tokenID, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = memorySession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemorySessionStore) RevokeSession(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[tokenID]; ok {
		sess.revoked = true
		s.sessions[tokenID] = sess
	}
	return nil
}

func (s *MemorySessionStore) SessionActive(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenID]
	if !ok || sess.revoked {
		return false, nil
	}
	return time.Now().Before(sess.expiresAt), nil
}

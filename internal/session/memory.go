package session

import (
	"context"
	"sync"

	"talentgate/interview/internal/models"
)

// MemoryStore is the default single-process backend: a mutex-guarded map with
// reference semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.InterviewSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.InterviewSession),
	}
}

func (s *MemoryStore) Create(_ context.Context, sess *models.InterviewSession) (string, error) {
	token := newToken()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = sess
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*models.InterviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[token]
	if !exists {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Update(_ context.Context, token string, sess *models.InterviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[token]; !exists {
		return ErrNotFound
	}
	s.sessions[token] = sess
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"talentgate/interview/internal/models"
)

// ErrNotFound is returned for unknown or expired session tokens. A missing
// session is never resurrected as a default/empty one.
var ErrNotFound = errors.New("session not found")

// Store keeps interview sessions keyed by an opaque, unguessable token.
// Update writes the mutated session back; the in-memory backend makes this a
// no-op by reference semantics, the redis backend re-marshals. The store is
// safe for concurrent use across distinct tokens; serializing operations on
// one session is the engine's responsibility.
type Store interface {
	Create(ctx context.Context, sess *models.InterviewSession) (string, error)
	Get(ctx context.Context, token string) (*models.InterviewSession, error)
	Update(ctx context.Context, token string, sess *models.InterviewSession) error
}

// newToken generates a cryptographically random session token.
func newToken() string {
	return uuid.New().String()
}

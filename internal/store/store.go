// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
	"github.com/google/uuid"
)

// Store persists assessment sessions keyed by id. Implementations are safe
// for concurrent use and return domain.ErrSessionNotFound for unknown ids.
type Store interface {
	// Create allocates a new session at the first stage.
	Create(ctx context.Context) (*domain.Session, error)

	// Get returns a copy of the session with the given id.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Put replaces the stored session and refreshes its UpdatedAt. It never
	// recreates a deleted or expired session: a missing id returns
	// domain.ErrSessionNotFound.
	Put(ctx context.Context, sess *domain.Session) error

	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions idle for longer than ttl and returns their ids.
	DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// StageCounter is implemented by stores that can report how many sessions
// sit in each stage.
type StageCounter interface {
	CountByStage(ctx context.Context) (map[domain.Stage]int, error)
}

// Package-level hooks so tests can control ids and time.
var (
	newID   = uuid.NewString
	timeNow = time.Now
)

func newSession() *domain.Session {
	return domain.NewSession(newID(), timeNow().UTC())
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*domain.Session)}
}

// Create allocates a new session.
func (m *MemoryStore) Create(_ context.Context) (*domain.Session, error) {
	sess := newSession()
	m.mu.Lock()
	m.sessions[sess.ID] = sess.Clone()
	m.mu.Unlock()
	return sess, nil
}

// Get returns a copy of a session.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Put stores a copy of sess over an existing session.
func (m *MemoryStore) Put(_ context.Context, sess *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	sess.UpdatedAt = timeNow().UTC()
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// DeleteExpired removes sessions idle for longer than ttl.
func (m *MemoryStore) DeleteExpired(_ context.Context, ttl time.Duration) ([]string, error) {
	cutoff := timeNow().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	return expired, nil
}

// CountByStage returns how many stored sessions are in each stage.
func (m *MemoryStore) CountByStage(context.Context) (map[domain.Stage]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.Stage]int)
	for _, sess := range m.sessions {
		counts[sess.Stage]++
	}
	return counts, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

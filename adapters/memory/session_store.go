// Package memory holds process-local stores used when no database is
// configured.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/keylock"
)

// SessionStore is an in-memory implementation of SessionStore
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.ChatContext
	locks    keylock.Locker
}

// Ensure SessionStore implements the SessionStore interface
var _ repositories.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entities.ChatContext),
	}
}

// Create implements SessionStore interface
func (m *SessionStore) Create(ctx context.Context, session *entities.ChatContext) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return errors.New("session with this ID already exists")
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

// Get implements SessionStore interface
func (m *SessionStore) Get(ctx context.Context, id string) (*entities.ChatContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, repositories.ErrSessionNotFound
	}
	// Return a copy to prevent external modifications
	return session.Clone(), nil
}

// Update implements SessionStore interface
func (m *SessionStore) Update(ctx context.Context, id string, fn func(*entities.ChatContext) error) (*entities.ChatContext, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return nil, repositories.ErrSessionNotFound
	}
	m.sessions[id] = session.Clone()
	return session, nil
}

// Delete implements SessionStore interface
func (m *SessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return repositories.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ExpireIdle implements SessionStore interface
func (m *SessionStore) ExpireIdle(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, session := range m.sessions {
		if session.Status == entities.SessionStatusActive && session.LastActiveAt.Before(cutoff) {
			session.Expire()
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions.
func (m *SessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

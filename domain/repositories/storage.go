package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
)

// ErrSessionNotFound is returned by session stores for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds chat contexts. Update runs fn with exclusive access to
// one session, so concurrent updates to the same id apply one at a time in
// arrival order; updates to different ids do not block each other.
type SessionStore interface {
	Create(ctx context.Context, session *entities.ChatContext) error
	Get(ctx context.Context, id string) (*entities.ChatContext, error)
	// Update loads the session, applies fn and saves the result unless fn
	// returns an error. The session passed to fn is a private copy.
	Update(ctx context.Context, id string, fn func(*entities.ChatContext) error) (*entities.ChatContext, error)
	Delete(ctx context.Context, id string) error
	// ExpireIdle marks active sessions idle since before cutoff as expired
	// and returns how many were changed.
	ExpireIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// HistoryRepository records a user's completed operations.
type HistoryRepository interface {
	Create(ctx context.Context, record *entities.HistoryRecord) error
	ListByUser(ctx context.Context, userID string, filter entities.HistoryFilter) ([]entities.HistoryRecord, error)
	Stats(ctx context.Context, userID string) (entities.HistoryStats, error)
}

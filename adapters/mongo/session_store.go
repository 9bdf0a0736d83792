package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/keylock"
)

// SessionStore implements SessionStore using MongoDB. Updates to one
// session are serialized within this process.
type SessionStore struct {
	collection *mongo.Collection
	locks      keylock.Locker
	logger     *zap.Logger
}

// Ensure SessionStore implements the SessionStore interface
var _ repositories.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new MongoDB session store
func NewSessionStore(db *mongo.Database, logger *zap.Logger) *SessionStore {
	collection := db.Collection("chat_sessions")

	// Create indexes for better performance
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		userIndex := mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		}
		// Index on status and last activity for idle expiry
		statusActiveIndex := mongo.IndexModel{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "last_active_at", Value: 1},
			},
		}

		_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{userIndex, statusActiveIndex})
		if err != nil {
			logger.Error("Failed to create session indexes", zap.Error(err))
		} else {
			logger.Info("Session indexes created successfully")
		}
	}()

	return &SessionStore{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new session
func (r *SessionStore) Create(ctx context.Context, session *entities.ChatContext) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New("session with this ID already exists")
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug("Session created", zap.String("session_id", session.ID))
	return nil
}

// Get retrieves a session by ID
func (r *SessionStore) Get(ctx context.Context, id string) (*entities.ChatContext, error) {
	var session entities.ChatContext
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	normalize(&session)
	return &session, nil
}

// Update loads, modifies and replaces a session under the per-session lock
func (r *SessionStore) Update(ctx context.Context, id string, fn func(*entities.ChatContext) error) (*entities.ChatContext, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	session, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, session)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, repositories.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session
func (r *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrSessionNotFound
	}
	return nil
}

// ExpireIdle marks sessions idle since before cutoff as expired
func (r *SessionStore) ExpireIdle(ctx context.Context, cutoff time.Time) (int, error) {
	filter := bson.M{
		"status":         entities.SessionStatusActive,
		"last_active_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": entities.SessionStatusExpired}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}
	return int(result.ModifiedCount), nil
}

// normalize restores empty collections that BSON decodes as nil.
func normalize(s *entities.ChatContext) {
	if s.Messages == nil {
		s.Messages = make([]entities.ChatMessage, 0)
	}
	if s.Subjects == nil {
		s.Subjects = make([]string, 0)
	}
	if s.Preferences == nil {
		s.Preferences = make(map[string]string)
	}
}

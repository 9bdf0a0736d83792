package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

// newTestClient connects to MONGODB_URI and drops the test database on cleanup.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping MongoDB integration test - MONGODB_URI not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, Config{URI: uri, Database: "shiksha_test"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Database.Drop(ctx)
		_ = client.Close(ctx)
	})
	return client
}

func TestSessionStore_Integration(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	store := NewSessionStore(client.Database, zaptest.NewLogger(t))

	t.Run("CreateAndGetSession", func(t *testing.T) {
		session := entities.NewChatContext("mongo-s1", "user-1", "pa", "homework", "beginner", 0)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		got, err := store.Get(ctx, "mongo-s1")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if got.Language != "pa" || got.UserID != "user-1" {
			t.Errorf("unexpected session %+v", got)
		}
		if got.Messages == nil {
			t.Error("messages should decode as empty slice")
		}
	})

	t.Run("UpdateSession", func(t *testing.T) {
		updated, err := store.Update(ctx, "mongo-s1", func(s *entities.ChatContext) error {
			s.AddMessage(entities.ChatMessage{Role: entities.MessageRoleUser, Content: "ਸਤ ਸ੍ਰੀ ਅਕਾਲ"})
			return nil
		})
		if err != nil {
			t.Fatalf("Failed to update session: %v", err)
		}
		if len(updated.Messages) != 1 {
			t.Errorf("expected 1 message, got %d", len(updated.Messages))
		}
	})

	t.Run("ExpireIdle", func(t *testing.T) {
		n, err := store.ExpireIdle(ctx, time.Now().Add(time.Minute))
		if err != nil {
			t.Fatalf("ExpireIdle: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 expired session, got %d", n)
		}
	})

	t.Run("DeleteSession", func(t *testing.T) {
		if err := store.Delete(ctx, "mongo-s1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "mongo-s1"); !errors.Is(err, repositories.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestHistoryRepository_Integration(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewHistoryRepository(client.Database, zaptest.NewLogger(t))

	for _, f := range []entities.Feature{entities.FeatureGrammar, entities.FeatureGrammar, entities.FeatureOCR} {
		if err := repo.Create(ctx, &entities.HistoryRecord{UserID: "u1", Feature: f, Language: "en", Confidence: 0.8}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	records, err := repo.ListByUser(ctx, "u1", entities.HistoryFilter{Feature: entities.FeatureGrammar})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 grammar records, got %d", len(records))
	}

	stats, err := repo.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Languages["en"] != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

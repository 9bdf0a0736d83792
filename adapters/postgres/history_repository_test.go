package postgres

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/domain/entities"
)

func TestHistoryRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL integration test - DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := Open(ctx, dsn, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	repo := NewHistoryRepository(db)
	userID := "pg-test-user"
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `delete from history where user_id=$1`, userID) })

	for _, f := range []entities.Feature{entities.FeatureOCR, entities.FeatureChat, entities.FeatureChat} {
		if err := repo.Create(ctx, &entities.HistoryRecord{UserID: userID, Feature: f, Language: "hi", Confidence: 0.6}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	chats, err := repo.ListByUser(ctx, userID, entities.HistoryFilter{Feature: entities.FeatureChat})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(chats) != 2 {
		t.Errorf("expected 2 chat records, got %d", len(chats))
	}

	all, err := repo.ListByUser(ctx, userID, entities.HistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected limit to apply, got %d", len(all))
	}

	stats, err := repo.Stats(ctx, userID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.ByFeature[entities.FeatureChat].Count != 2 || stats.Languages["hi"] != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

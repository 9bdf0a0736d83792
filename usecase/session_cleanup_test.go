package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/adapters/memory"
	"github.com/shiksha-ai/server/domain/entities"
)

func TestSessionCleanupService_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()

	idle := entities.NewChatContext("idle", "user-1", "en", "general", "beginner", time.Hour)
	idle.LastActiveAt = time.Now().Add(-2 * time.Hour)
	fresh := entities.NewChatContext("fresh", "user-1", "en", "general", "beginner", time.Hour)
	for _, s := range []*entities.ChatContext{idle, fresh} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	svc := NewSessionCleanupService(store, time.Hour, time.Minute, zaptest.NewLogger(t))
	if n := svc.RunOnce(ctx); n != 1 {
		t.Fatalf("Expected 1 expired session, got %d", n)
	}

	got, err := store.Get(ctx, "idle")
	if err != nil {
		t.Fatalf("Expected expired session to remain stored: %v", err)
	}
	if got.Status != entities.SessionStatusExpired {
		t.Errorf("Expected idle session to be expired, got %s", got.Status)
	}
	if got, _ := store.Get(ctx, "fresh"); got.Status != entities.SessionStatusActive {
		t.Errorf("Expected fresh session to stay active, got %s", got.Status)
	}
	if n := svc.RunOnce(ctx); n != 0 {
		t.Errorf("Expected second pass to change nothing, got %d", n)
	}
}

func TestSessionCleanupService_StartStop(t *testing.T) {
	store := memory.NewSessionStore()
	svc := NewSessionCleanupService(store, time.Hour, 10*time.Millisecond, zaptest.NewLogger(t))

	svc.Start()
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
	svc.Stop()

	// Stop without Start must not block.
	NewSessionCleanupService(store, 0, 0, zaptest.NewLogger(t)).Stop()
}

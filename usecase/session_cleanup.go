package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

const defaultCleanupInterval = 30 * time.Minute

// SessionCleanupService periodically marks idle chat sessions as expired.
// Expired sessions stay readable until they are deleted.
type SessionCleanupService struct {
	sessions repositories.SessionStore
	idle     time.Duration
	interval time.Duration
	logger   *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionCleanupService creates a cleanup service. Sessions idle for
// longer than idle are expired every interval.
func NewSessionCleanupService(sessions repositories.SessionStore, idle, interval time.Duration, logger *zap.Logger) *SessionCleanupService {
	if idle <= 0 {
		idle = entities.DefaultSessionTTL
	}
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	return &SessionCleanupService{
		sessions: sessions,
		idle:     idle,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("idle", s.idle),
		zap.Duration("interval", s.interval))
}

// Stop stops the cleanup loop and waits for a running pass to finish.
// It is safe to call more than once.
func (s *SessionCleanupService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.started.Load() {
			<-s.done
		}
		s.logger.Info("Session cleanup service stopped")
	})
}

func (s *SessionCleanupService) cleanupLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce expires idle sessions and returns how many were changed.
func (s *SessionCleanupService) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	n, err := s.sessions.ExpireIdle(ctx, time.Now().Add(-s.idle))
	if err != nil {
		s.logger.Error("Failed to expire sessions", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("Expired idle sessions", zap.Int("count", n))
	}
	return n
}

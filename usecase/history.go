package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

const summaryLength = 120

// HistoryService records completed operations and reads them back. Recording
// is best effort: a failing store never fails the operation being recorded.
type HistoryService struct {
	repo   repositories.HistoryRepository
	logger *zap.Logger
}

// NewHistoryService creates a history service. A nil repo disables history.
func NewHistoryService(repo repositories.HistoryRepository, logger *zap.Logger) *HistoryService {
	return &HistoryService{repo: repo, logger: logger}
}

// Record stores a summary of one successful operation.
func (s *HistoryService) Record(ctx context.Context, userID string, feature entities.Feature, languageCode, input, output string, confidence float64) {
	if s == nil || s.repo == nil {
		return
	}
	record := &entities.HistoryRecord{
		UserID:        userID,
		Feature:       feature,
		Language:      languageCode,
		InputSummary:  summarize(input),
		OutputSummary: summarize(output),
		Confidence:    confidence,
		CreatedAt:     time.Now(),
	}
	// Detached so a client disconnect after the response does not drop the record.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Warn("Failed to record history",
			zap.String("feature", string(feature)),
			zap.Error(err))
	}
}

// List returns the user's records, newest first.
func (s *HistoryService) List(ctx context.Context, userID string, filter entities.HistoryFilter) ([]entities.HistoryRecord, error) {
	if s == nil || s.repo == nil {
		return make([]entities.HistoryRecord, 0), nil
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// Stats aggregates the user's records.
func (s *HistoryService) Stats(ctx context.Context, userID string) (entities.HistoryStats, error) {
	if s == nil || s.repo == nil {
		return entities.ComputeHistoryStats(nil), nil
	}
	return s.repo.Stats(ctx, userID)
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= summaryLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:summaryLength-1]) + "…"
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

const (
	// maxRecordsPerUser bounds memory use; the oldest records are dropped.
	maxRecordsPerUser = 1000
	defaultListLimit  = 50
)

// HistoryStore keeps activity history per user in memory.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string][]entities.HistoryRecord
}

var _ repositories.HistoryRepository = (*HistoryStore)(nil)

// NewHistoryStore creates a new in-memory history store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string][]entities.HistoryRecord)}
}

// Create implements HistoryRepository interface
func (h *HistoryStore) Create(ctx context.Context, record *entities.HistoryRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	list := append(h.records[record.UserID], *record)
	if len(list) > maxRecordsPerUser {
		list = append([]entities.HistoryRecord(nil), list[len(list)-maxRecordsPerUser:]...)
	}
	h.records[record.UserID] = list
	return nil
}

// ListByUser implements HistoryRepository interface. Newest records first.
func (h *HistoryStore) ListByUser(ctx context.Context, userID string, filter entities.HistoryFilter) ([]entities.HistoryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]entities.HistoryRecord, 0)
	records := h.records[userID]
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		if filter.Feature != "" && records[i].Feature != filter.Feature {
			continue
		}
		out = append(out, records[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Stats implements HistoryRepository interface
func (h *HistoryStore) Stats(ctx context.Context, userID string) (entities.HistoryStats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return entities.ComputeHistoryStats(h.records[userID]), nil
}

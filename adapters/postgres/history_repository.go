package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

const defaultHistoryLimit = 50

type HistoryRepository struct{ DB *sql.DB }

var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{DB: db} }

func (r *HistoryRepository) Create(ctx context.Context, record *entities.HistoryRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	const q = `
insert into history(id, user_id, feature, language, input_summary, output_summary, confidence, created_at)
values ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.DB.ExecContext(ctx, q,
		record.ID, record.UserID, string(record.Feature), record.Language,
		record.InputSummary, record.OutputSummary, record.Confidence, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

// ListByUser returns a user's records, newest first. An empty feature
// matches every feature.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, filter entities.HistoryFilter) ([]entities.HistoryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	const q = `select id, user_id, feature, language, input_summary, output_summary, confidence, created_at
	           from history
	           where user_id=$1 and ($2 = '' or feature=$2)
	           order by created_at desc
	           limit $3`
	rows, err := r.DB.QueryContext(ctx, q, userID, string(filter.Feature), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := make([]entities.HistoryRecord, 0)
	for rows.Next() {
		var (
			rec     entities.HistoryRecord
			feature string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &feature, &rec.Language,
			&rec.InputSummary, &rec.OutputSummary, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		rec.Feature = entities.Feature(feature)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *HistoryRepository) Stats(ctx context.Context, userID string) (entities.HistoryStats, error) {
	stats := entities.HistoryStats{
		ByFeature: make(map[entities.Feature]entities.FeatureStats),
		Languages: make(map[string]int),
	}

	const byFeature = `select feature, count(*), coalesce(avg(confidence), 0), max(created_at)
	                   from history where user_id=$1 group by feature`
	rows, err := r.DB.QueryContext(ctx, byFeature, userID)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			feature string
			fs      entities.FeatureStats
			last    time.Time
		)
		if err := rows.Scan(&feature, &fs.Count, &fs.AverageConfidence, &last); err != nil {
			return stats, fmt.Errorf("failed to scan history stats: %w", err)
		}
		stats.ByFeature[entities.Feature(feature)] = fs
		stats.Total += fs.Count
		if stats.LastUsed == nil || last.After(*stats.LastUsed) {
			stats.LastUsed = &last
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	const byLanguage = `select language, count(*) from history
	                    where user_id=$1 and language <> '' group by language`
	langRows, err := r.DB.QueryContext(ctx, byLanguage, userID)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate languages: %w", err)
	}
	defer langRows.Close()
	for langRows.Next() {
		var (
			lang  string
			count int
		)
		if err := langRows.Scan(&lang, &count); err != nil {
			return stats, fmt.Errorf("failed to scan language stats: %w", err)
		}
		stats.Languages[lang] = count
	}
	return stats, langRows.Err()
}

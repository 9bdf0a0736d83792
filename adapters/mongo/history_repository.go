package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

const defaultHistoryLimit = 50

// HistoryRepository stores activity history in MongoDB
type HistoryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new MongoDB history repository
func NewHistoryRepository(db *mongo.Database, logger *zap.Logger) *HistoryRepository {
	collection := db.Collection("history")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		})
		if err != nil {
			logger.Error("Failed to create history indexes", zap.Error(err))
		}
	}()

	return &HistoryRepository{collection: collection, logger: logger}
}

// Create inserts a record
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
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

// ListByUser returns a user's records, newest first
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, filter entities.HistoryFilter) ([]entities.HistoryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query := bson.M{"user_id": userID}
	if filter.Feature != "" {
		query["feature"] = filter.Feature
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]entities.HistoryRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

type featureGroup struct {
	Feature       entities.Feature `bson:"_id"`
	Count         int              `bson:"count"`
	AvgConfidence float64          `bson:"avg_confidence"`
	LastUsed      time.Time        `bson:"last_used"`
}

type languageGroup struct {
	Language string `bson:"_id"`
	Count    int    `bson:"count"`
}

// Stats aggregates a user's history on the server
func (r *HistoryRepository) Stats(ctx context.Context, userID string) (entities.HistoryStats, error) {
	stats := entities.HistoryStats{
		ByFeature: make(map[entities.Feature]entities.FeatureStats),
		Languages: make(map[string]int),
	}

	byFeature := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$feature",
			"count":          bson.M{"$sum": 1},
			"avg_confidence": bson.M{"$avg": "$confidence"},
			"last_used":      bson.M{"$max": "$created_at"},
		}}},
	}
	var features []featureGroup
	if err := r.aggregate(ctx, byFeature, &features); err != nil {
		return stats, err
	}
	for _, g := range features {
		stats.Total += g.Count
		stats.ByFeature[g.Feature] = entities.FeatureStats{Count: g.Count, AverageConfidence: g.AvgConfidence}
		if stats.LastUsed == nil || g.LastUsed.After(*stats.LastUsed) {
			last := g.LastUsed
			stats.LastUsed = &last
		}
	}

	byLanguage := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "language": bson.M{"$ne": ""}}}},
		{{Key: "$group", Value: bson.M{"_id": "$language", "count": bson.M{"$sum": 1}}}},
	}
	var languages []languageGroup
	if err := r.aggregate(ctx, byLanguage, &languages); err != nil {
		return stats, err
	}
	for _, g := range languages {
		stats.Languages[g.Language] = g.Count
	}
	return stats, nil
}

func (r *HistoryRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate history: %w", err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode history stats: %w", err)
	}
	return nil
}

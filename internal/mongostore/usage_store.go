package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/boomchecker/moderation-gateway/internal/models"
)

// UsageStore appends usage records to a MongoDB collection
type UsageStore struct {
	coll *mongo.Collection
}

// NewUsageStore creates a usage store over db's usages collection
func NewUsageStore(db *mongo.Database) *UsageStore {
	return &UsageStore{coll: db.Collection(UsagesCollection)}
}

// Append inserts a usage record
func (s *UsageStore) Append(ctx context.Context, record *models.UsageRecord) error {
	if record == nil {
		return fmt.Errorf("usage record cannot be nil")
	}

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	} else {
		record.Timestamp = record.Timestamp.UTC()
	}
	if record.Status == "" {
		record.Status = models.UsageStatusSuccess
	}

	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}

	return nil
}

// ListByToken returns the newest records first; a non-positive limit returns all
func (s *UsageStore) ListByToken(ctx context.Context, tokenValue string, limit int) ([]*models.UsageRecord, error) {
	if tokenValue == "" {
		return nil, fmt.Errorf("token value is required")
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bsonD("token", tokenValue), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*models.UsageRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode usage records: %w", err)
	}

	return records, nil
}

// CountByToken returns the number of usage records for a token
func (s *UsageStore) CountByToken(ctx context.Context, tokenValue string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bsonD("token", tokenValue))
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

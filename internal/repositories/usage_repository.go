package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/boomchecker/moderation-gateway/internal/models"
)

// UsageRepository appends and reads usage records
// Records are never updated or deleted
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Append inserts a usage record
func (r *UsageRepository) Append(ctx context.Context, record *models.UsageRecord) error {
	if record == nil {
		return fmt.Errorf("usage record cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}

	return nil
}

// ListByToken retrieves the most recent usage records for a token (newest first)
// A non-positive limit returns all records
func (r *UsageRepository) ListByToken(ctx context.Context, tokenValue string, limit int) ([]*models.UsageRecord, error) {
	if tokenValue == "" {
		return nil, fmt.Errorf("token value is required")
	}

	query := r.db.WithContext(ctx).Where("token = ?", tokenValue).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []*models.UsageRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}

	return records, nil
}

// CountByToken returns the number of usage records for a token
func (r *UsageRepository) CountByToken(ctx context.Context, tokenValue string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("token = ?", tokenValue).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}

	return count, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

// TokenRepository handles database operations for bearer tokens
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository instance
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token into the database
// Uniqueness is enforced by the unique index on tokens.token, so the check and
// the insert happen in one statement. Returns apperrors.ErrDuplicateToken on a clash.
func (r *TokenRepository) Create(ctx context.Context, token *models.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	if token.Token == "" {
		return fmt.Errorf("token value is required")
	}

	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create token: %w", apperrors.ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// FindByToken retrieves a token by its exact value
// Returns nil, nil if the token doesn't exist
func (r *TokenRepository) FindByToken(ctx context.Context, tokenValue string) (*models.Token, error) {
	if tokenValue == "" {
		return nil, nil
	}

	var token models.Token
	if err := r.db.WithContext(ctx).Where("token = ?", tokenValue).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &token, nil
}

// ListAll retrieves all tokens in insertion order
func (r *TokenRepository) ListAll(ctx context.Context) ([]*models.Token, error) {
	var tokens []*models.Token
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list all tokens: %w", err)
	}

	return tokens, nil
}

// Delete permanently removes a token from the database
// Returns false if no token with that value existed
func (r *TokenRepository) Delete(ctx context.Context, tokenValue string) (bool, error) {
	if tokenValue == "" {
		return false, nil
	}

	result := r.db.WithContext(ctx).Where("token = ?", tokenValue).Delete(&models.Token{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete token: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// TouchLastUsed records the time of the latest successful authentication
// Updating a token that was deleted in the meantime affects no rows and is not an error
func (r *TokenRepository) TouchLastUsed(ctx context.Context, tokenValue string, when time.Time) error {
	if tokenValue == "" {
		return fmt.Errorf("token value is required")
	}

	result := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("token = ?", tokenValue).
		Update("last_used", when.UTC())

	if result.Error != nil {
		return fmt.Errorf("failed to update last used: %w", result.Error)
	}

	return nil
}

// CountAdmins returns the number of admin tokens
func (r *TokenRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("is_admin = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count admin tokens: %w", err)
	}

	return count, nil
}

// isUniqueViolation detects unique-index failures from either SQLite driver
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

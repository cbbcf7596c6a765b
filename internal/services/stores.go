package services

import (
	"context"
	"time"

	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/mongostore"
	"github.com/boomchecker/moderation-gateway/internal/repositories"
)

// TokenStore persists bearer tokens.
// Implementations must reject duplicate values atomically with
// apperrors.ErrDuplicateToken and must never re-insert on TouchLastUsed.
type TokenStore interface {
	Create(ctx context.Context, token *models.Token) error
	FindByToken(ctx context.Context, tokenValue string) (*models.Token, error)
	ListAll(ctx context.Context) ([]*models.Token, error)
	Delete(ctx context.Context, tokenValue string) (bool, error)
	TouchLastUsed(ctx context.Context, tokenValue string, when time.Time) error
	CountAdmins(ctx context.Context) (int64, error)
}

// UsageStore appends and reads usage records.
// ListByToken returns newest first; a non-positive limit returns all.
type UsageStore interface {
	Append(ctx context.Context, record *models.UsageRecord) error
	ListByToken(ctx context.Context, tokenValue string, limit int) ([]*models.UsageRecord, error)
	CountByToken(ctx context.Context, tokenValue string) (int64, error)
}

var (
	_ TokenStore = (*repositories.TokenRepository)(nil)
	_ TokenStore = (*mongostore.TokenStore)(nil)
	_ UsageStore = (*repositories.UsageRepository)(nil)
	_ UsageStore = (*mongostore.UsageStore)(nil)
)

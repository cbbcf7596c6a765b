package services

import (
	"context"
	"fmt"
	"time"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

// Bounds for the number of records returned in a usage report
const (
	DefaultUsageLimit = 20
	MaxUsageLimit     = 100
)

// UsageReport summarises metered usage of one token
type UsageReport struct {
	Token         string                `json:"token"`
	IsAdmin       bool                  `json:"is_admin"`
	Used          bool                  `json:"used"`
	LastUsed      *time.Time            `json:"last_used"`
	TotalRequests int64                 `json:"total_requests"`
	RecentErrors  int                   `json:"recent_errors"`
	Recent        []*models.UsageRecord `json:"recent"`
}

// UsageService reports recorded usage to admins
type UsageService struct {
	tokens TokenStore
	usage  UsageStore
	guard  *AuthGuard
}

// NewUsageService creates a new usage service instance
func NewUsageService(tokens TokenStore, usage UsageStore, guard *AuthGuard) *UsageService {
	return &UsageService{tokens: tokens, usage: usage, guard: guard}
}

// Report returns the usage summary of tokenValue with at most limit recent
// records, newest first. A zero limit selects DefaultUsageLimit.
func (s *UsageService) Report(ctx context.Context, caller *models.Token, tokenValue string, limit int) (*UsageReport, error) {
	if _, err := s.guard.RequireAdmin(caller); err != nil {
		return nil, err
	}

	if limit == 0 {
		limit = DefaultUsageLimit
	}
	if limit < 0 || limit > MaxUsageLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", apperrors.ErrInvalidInput, MaxUsageLimit)
	}

	token, err := s.tokens.FindByToken(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up token: %w", apperrors.ErrUpstream, err)
	}
	if token == nil {
		return nil, fmt.Errorf("usage report: %w", apperrors.ErrNotFound)
	}

	total, err := s.usage.CountByToken(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count usage: %w", apperrors.ErrUpstream, err)
	}

	recent, err := s.usage.ListByToken(ctx, tokenValue, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list usage: %w", apperrors.ErrUpstream, err)
	}
	if recent == nil {
		recent = []*models.UsageRecord{}
	}

	report := &UsageReport{
		Token:         token.Token,
		IsAdmin:       token.IsAdmin,
		Used:          token.HasBeenUsed(),
		LastUsed:      token.LastUsed,
		TotalRequests: total,
		Recent:        recent,
	}
	for _, record := range recent {
		if !record.IsSuccess() {
			report.RecentErrors++
		}
	}

	return report, nil
}

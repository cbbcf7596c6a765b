package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/crypto"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

// maxCreateAttempts bounds regeneration after a duplicate-value clash
const maxCreateAttempts = 3

// AdminTokenService handles the business logic for token lifecycle management.
// Every operation requires an authenticated admin caller.
type AdminTokenService struct {
	store    TokenStore
	guard    *AuthGuard
	log      zerolog.Logger
	generate func() (string, error)
	now      func() time.Time
}

// NewAdminTokenService creates a new admin token service instance
func NewAdminTokenService(store TokenStore, guard *AuthGuard, log zerolog.Logger) *AdminTokenService {
	return &AdminTokenService{
		store:    store,
		guard:    guard,
		log:      log,
		generate: crypto.GenerateToken,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTokenRequest is the body of POST /auth/tokens
type CreateTokenRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// Create issues a new server-generated token
func (s *AdminTokenService) Create(ctx context.Context, caller *models.Token, isAdmin bool) (*models.Token, error) {
	if _, err := s.guard.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		value, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		token := &models.Token{
			Token:     value,
			IsAdmin:   isAdmin,
			CreatedAt: s.now(),
		}

		err = s.store.Create(ctx, token)
		if err == nil {
			s.log.Info().
				Str("token", crypto.Fingerprint(token.Token)).
				Bool("is_admin", token.IsAdmin).
				Str("created_by", crypto.Fingerprint(caller.Token)).
				Msg("Token created")
			return token, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateToken) {
			return nil, fmt.Errorf("%w: failed to store token: %w", apperrors.ErrUpstream, err)
		}

		lastErr = err
		s.log.Warn().Int("attempt", attempt).Msg("Generated token collided with an existing one, retrying")
	}

	return nil, fmt.Errorf("failed to create token after %d attempts: %w", maxCreateAttempts, lastErr)
}

// List returns every stored token, admin tokens included
func (s *AdminTokenService) List(ctx context.Context, caller *models.Token) ([]*models.Token, error) {
	if _, err := s.guard.RequireAdmin(caller); err != nil {
		return nil, err
	}

	tokens, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tokens: %w", apperrors.ErrUpstream, err)
	}
	if tokens == nil {
		tokens = []*models.Token{}
	}

	return tokens, nil
}

// Delete permanently removes a token. Returns ErrNotFound when nothing was removed.
func (s *AdminTokenService) Delete(ctx context.Context, caller *models.Token, tokenValue string) error {
	if _, err := s.guard.RequireAdmin(caller); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, tokenValue)
	if err != nil {
		return fmt.Errorf("%w: failed to delete token: %w", apperrors.ErrUpstream, err)
	}
	if !deleted {
		return fmt.Errorf("token %s: %w", crypto.Fingerprint(tokenValue), apperrors.ErrNotFound)
	}

	s.log.Info().
		Str("token", crypto.Fingerprint(tokenValue)).
		Str("deleted_by", crypto.Fingerprint(caller.Token)).
		Msg("Token deleted")
	return nil
}

// SeedAdmin stores value as an admin token unless it already exists.
// Returns true when a new token was inserted.
func (s *AdminTokenService) SeedAdmin(ctx context.Context, tokenValue string) (bool, error) {
	if tokenValue == "" {
		return false, fmt.Errorf("admin token value is required: %w", apperrors.ErrInvalidInput)
	}

	existing, err := s.store.FindByToken(ctx, tokenValue)
	if err != nil {
		return false, fmt.Errorf("failed to check admin token: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin {
			s.log.Warn().
				Str("token", crypto.Fingerprint(tokenValue)).
				Msg("Configured admin token exists without the admin role")
		}
		return false, nil
	}

	err = s.store.Create(ctx, &models.Token{
		Token:     tokenValue,
		IsAdmin:   true,
		CreatedAt: s.now(),
	})
	if errors.Is(err, apperrors.ErrDuplicateToken) {
		// Another instance seeded it between the lookup and the insert
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed admin token: %w", err)
	}

	s.log.Info().Str("token", crypto.Fingerprint(tokenValue)).Msg("Admin token seeded")
	return true, nil
}

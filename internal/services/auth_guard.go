package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/crypto"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

// AuthGuard resolves bearer credentials to stored tokens and checks roles
type AuthGuard struct {
	store TokenStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewAuthGuard creates a new auth guard instance
func NewAuthGuard(store TokenStore, log zerolog.Logger) *AuthGuard {
	return &AuthGuard{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate resolves credential to its stored token and records the use.
//
// Unknown credentials return ErrUnauthorized without touching the store.
// A failed last_used update is logged and does not fail the request.
func (g *AuthGuard) Authenticate(ctx context.Context, credential string) (*models.Token, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", apperrors.ErrUnauthorized)
	}

	token, err := g.store.FindByToken(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up token: %w", apperrors.ErrUpstream, err)
	}
	if token == nil || !crypto.ConstantTimeEqual(token.Token, credential) {
		return nil, fmt.Errorf("unknown credential: %w", apperrors.ErrUnauthorized)
	}

	now := g.now()
	if err := g.store.TouchLastUsed(ctx, token.Token, now); err != nil {
		g.log.Warn().
			Err(err).
			Str("token", crypto.Fingerprint(token.Token)).
			Msg("Failed to update token last_used")
	} else {
		token.LastUsed = &now
	}

	return token, nil
}

// RequireAdmin returns the token unchanged when it carries the admin role
func (g *AuthGuard) RequireAdmin(token *models.Token) (*models.Token, error) {
	if token == nil {
		return nil, fmt.Errorf("no authenticated token: %w", apperrors.ErrUnauthorized)
	}
	if !token.IsAdmin {
		return nil, fmt.Errorf("admin role required: %w", apperrors.ErrForbidden)
	}
	return token, nil
}

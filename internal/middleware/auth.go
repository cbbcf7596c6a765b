package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/metrics"
	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

// TokenContextKey is the gin context key for the authenticated token
const TokenContextKey = "authenticated_token"

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing Authorization header: %w", apperrors.ErrUnauthorized)
	}

	scheme, credential, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", fmt.Errorf("invalid Authorization header format, expected Bearer <token>: %w", apperrors.ErrUnauthorized)
	}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", fmt.Errorf("empty bearer token: %w", apperrors.ErrUnauthorized)
	}
	return credential, nil
}

// Authenticate resolves the bearer token and stores it in the gin context
func Authenticate(guard *services.AuthGuard, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var token *models.Token
			token, err = guard.Authenticate(c.Request.Context(), credential)
			if err == nil {
				c.Set(TokenContextKey, token)
				c.Next()
				return
			}
		}

		_, reason := apperrors.Classify(err)
		m.AuthFailure(reason)
		RespondError(c, err)
	}
}

// RequireAdmin rejects authenticated non-admin tokens with 403
func RequireAdmin(guard *services.AuthGuard, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := guard.RequireAdmin(CurrentToken(c)); err != nil {
			_, reason := apperrors.Classify(err)
			m.AuthFailure(reason)
			RespondError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentToken returns the token stored by Authenticate, or nil
func CurrentToken(c *gin.Context) *models.Token {
	value, ok := c.Get(TokenContextKey)
	if !ok {
		return nil
	}
	token, _ := value.(*models.Token)
	return token
}

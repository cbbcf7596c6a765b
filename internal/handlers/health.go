package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/validators"
)

// ServiceName is reported by the health endpoint
const ServiceName = "moderation-gateway"

// readinessTimeout bounds the store ping of the readiness check
const readinessTimeout = 2 * time.Second

// Pinger checks that a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health
// @Summary Health check
// @Description Liveness probe. Not rate limited and requires no token.
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: validators.FormatUTCTimestamp(time.Now()),
		Service:   ServiceName,
	})
}

// ReadinessHandler handles GET /ready
// @Summary Readiness check
// @Description Pings the token store. Not rate limited and requires no token.
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse "Store unreachable"
// @Router /ready [get]
func ReadinessHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		status, state := http.StatusOK, "ready"
		if err := store.Ping(ctx); err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Readiness check failed")
			status, state = http.StatusServiceUnavailable, "unavailable"
		}

		c.JSON(status, models.HealthResponse{
			Status:    state,
			Timestamp: validators.FormatUTCTimestamp(time.Now()),
			Service:   ServiceName,
		})
	}
}

// WelcomeHandler handles GET /
// @Summary Welcome message
// @Tags health
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Router / [get]
func WelcomeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: "Welcome to the Image Moderation API",
	})
}

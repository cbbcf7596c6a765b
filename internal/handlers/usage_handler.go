package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/middleware"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

// UsageHandler serves per-token usage reports
type UsageHandler struct {
	usageService *services.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usageService *services.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// GetUsage handles GET /auth/tokens/:token/usage
// @Summary Token usage report
// @Description Total metered requests of a token and its most recent usage records, newest first.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Param token path string true "Token value"
// @Param limit query int false "Number of recent records (1-100, default 20)"
// @Success 200 {object} services.UsageReport
// @Failure 400 {object} middleware.ErrorResponse "Invalid limit"
// @Failure 401 {object} middleware.ErrorResponse "Missing or unknown token"
// @Failure 403 {object} middleware.ErrorResponse "Admin role required"
// @Failure 404 {object} middleware.ErrorResponse "Token not found"
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Router /auth/tokens/{token}/usage [get]
func (h *UsageHandler) GetUsage(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondError(c, fmt.Errorf("%w: limit must be an integer", apperrors.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	report, err := h.usageService.Report(c.Request.Context(), middleware.CurrentToken(c), c.Param("token"), limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

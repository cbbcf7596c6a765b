package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/middleware"
	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

// errMalformedTokenRequest hides binding details, which name Go types
var errMalformedTokenRequest = fmt.Errorf(`%w: request body must be JSON {"is_admin": bool}`, apperrors.ErrInvalidInput)

// TokenHandler handles HTTP requests for token lifecycle management
type TokenHandler struct {
	tokenService *services.AdminTokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenService *services.AdminTokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
	}
}

// CreateToken handles POST /auth/tokens
// @Summary Create a new token
// @Description Issues a new server-generated bearer token. An empty body creates a non-admin token.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CreateTokenRequest false "Token role"
// @Success 200 {object} models.TokenCreatedResponse
// @Failure 400 {object} middleware.ErrorResponse "Malformed JSON body"
// @Failure 401 {object} middleware.ErrorResponse "Missing or unknown token"
// @Failure 403 {object} middleware.ErrorResponse "Admin role required"
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Router /auth/tokens [post]
func (h *TokenHandler) CreateToken(c *gin.Context) {
	var req services.CreateTokenRequest

	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("Malformed token request body")
			middleware.RespondError(c, errMalformedTokenRequest)
			return
		}
	}

	token, err := h.tokenService.Create(c.Request.Context(), middleware.CurrentToken(c), req.IsAdmin)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, token.CreatedResponse())
}

// ListTokens handles GET /auth/tokens
// @Summary List all tokens
// @Description Returns every token, admin tokens included, in creation order.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Token
// @Failure 401 {object} middleware.ErrorResponse "Missing or unknown token"
// @Failure 403 {object} middleware.ErrorResponse "Admin role required"
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Router /auth/tokens [get]
func (h *TokenHandler) ListTokens(c *gin.Context) {
	tokens, err := h.tokenService.List(c.Request.Context(), middleware.CurrentToken(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// DeleteToken handles DELETE /auth/tokens/:token
// @Summary Delete a token
// @Description Permanently revokes a token. Subsequent requests with it are rejected.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Param token path string true "Token value"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or unknown token"
// @Failure 403 {object} middleware.ErrorResponse "Admin role required"
// @Failure 404 {object} middleware.ErrorResponse "Token not found"
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Router /auth/tokens/{token} [delete]
func (h *TokenHandler) DeleteToken(c *gin.Context) {
	if err := h.tokenService.Delete(c.Request.Context(), middleware.CurrentToken(c), c.Param("token")); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Token deleted successfully"})
}

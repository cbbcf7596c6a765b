package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"unauthorized"`
	Message string `json:"message" example:"invalid or missing bearer token"`
}

// Client-facing messages per reason. 5xx responses never echo the underlying error.
var reasonMessages = map[string]string{
	apperrors.ReasonUnauthorized:      "invalid or missing bearer token",
	apperrors.ReasonForbidden:         "admin privileges required",
	apperrors.ReasonNotFound:          "resource not found",
	apperrors.ReasonRateLimitExceeded: "too many requests",
	apperrors.ReasonInvalidInput:      "invalid request",
	apperrors.ReasonUpstreamFailure:   "upstream service unavailable",
	apperrors.ReasonInternal:          "internal server error",
}

// RespondError maps err onto the error taxonomy, writes the JSON body and
// aborts the handler chain
func RespondError(c *gin.Context, err error) {
	status, reason := apperrors.Classify(err)
	log := zerolog.Ctx(c.Request.Context())

	message := reasonMessages[reason]
	if status == http.StatusBadRequest {
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("reason", reason).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("reason", reason).Msg("Request rejected")
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="moderation-gateway"`)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   reason,
		Message: message,
	})
}

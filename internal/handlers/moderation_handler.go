package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/classifier"
	"github.com/boomchecker/moderation-gateway/internal/metrics"
	"github.com/boomchecker/moderation-gateway/internal/middleware"
	"github.com/boomchecker/moderation-gateway/internal/services"
	"github.com/boomchecker/moderation-gateway/internal/validators"
)

// UploadField is the multipart form field carrying the image
const UploadField = "file"

// multipartSlack covers multipart framing around a maximum-size file
const multipartSlack = 64 * 1024

// Moderation outcomes recorded in metrics
const (
	OutcomeSafe   = "safe"
	OutcomeUnsafe = "unsafe"
	OutcomeError  = "error"
)

// ModerationHandler handles HTTP requests for image moderation
type ModerationHandler struct {
	moderationService *services.ModerationService
	metrics           *metrics.Metrics
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(moderationService *services.ModerationService, m *metrics.Metrics) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		metrics:           m,
	}
}

// Moderate handles POST /moderate
// @Summary Moderate an image
// @Description Classifies an uploaded JPEG, PNG or GIF (max 5 MiB) for harmful content.
// @Tags moderation
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image to analyze"
// @Success 200 {object} classifier.Result
// @Failure 400 {object} middleware.ErrorResponse "Missing file, unsupported type or file too large"
// @Failure 401 {object} middleware.ErrorResponse "Missing or unknown token"
// @Failure 429 {object} middleware.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} middleware.ErrorResponse "Classifier unavailable"
// @Router /moderate [post]
func (h *ModerationHandler) Moderate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, validators.MaxFileSize+multipartSlack)

	upload, err := readUpload(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := h.moderationService.Moderate(c.Request.Context(), middleware.CurrentToken(c), upload)
	if err != nil {
		if !apperrors.IsClientError(err) {
			h.metrics.Moderation(OutcomeError)
		}
		middleware.RespondError(c, err)
		return
	}

	h.metrics.Moderation(outcome(result))
	c.JSON(http.StatusOK, result)
}

// readUpload reads the multipart file into memory, never buffering more than
// one byte past the size limit
func readUpload(c *gin.Context) (services.Upload, error) {
	fileHeader, err := c.FormFile(UploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.Upload{}, validators.NewValidationError(UploadField, fmt.Sprintf("file too large (max %d bytes)", validators.MaxFileSize))
		}
		return services.Upload{}, validators.NewValidationError(UploadField, "multipart field \"file\" is required")
	}

	if fileHeader.Size > validators.MaxFileSize {
		return services.Upload{}, validators.NewValidationError(UploadField, fmt.Sprintf("file too large (max %d bytes, got: %d)", validators.MaxFileSize, fileHeader.Size))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, validators.MaxFileSize+1))
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}

	return services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func outcome(result *classifier.Result) string {
	if result.Safe {
		return OutcomeSafe
	}
	return OutcomeUnsafe
}

package validators

import (
	"fmt"
	"mime"
	"strings"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
)

// MaxFileSize is the largest accepted upload (5 MiB, inclusive)
const MaxFileSize int64 = 5 * 1024 * 1024

// AllowedContentTypes lists the accepted image media types
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers classify any validation error as invalid input
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NormalizeContentType strips parameters and lowercases a media type.
// "image/PNG; charset=binary" becomes "image/png".
func NormalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	// Fall back to the part before ';' for malformed parameter lists
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// IsAllowedContentType checks if the declared type is an accepted image type
func IsAllowedContentType(contentType string) bool {
	return AllowedContentTypes[NormalizeContentType(contentType)]
}

// ValidateImageUpload checks the declared content type and payload size of an upload
func ValidateImageUpload(contentType string, size int64) error {
	if contentType == "" {
		return NewValidationError("file", "content type is required")
	}
	if !IsAllowedContentType(contentType) {
		return NewValidationError("file", fmt.Sprintf("unsupported content type %q (allowed: image/jpeg, image/png, image/gif)", NormalizeContentType(contentType)))
	}
	if size <= 0 {
		return NewValidationError("file", "file is empty")
	}
	if size > MaxFileSize {
		return NewValidationError("file", fmt.Sprintf("file too large (max %d bytes, got: %d)", MaxFileSize, size))
	}
	return nil
}

// ValidateStringLength validates string length constraints
func ValidateStringLength(value string, fieldName string, minLength, maxLength int) error {
	length := len(value)
	if minLength > 0 && length < minLength {
		return NewValidationError(fieldName, fmt.Sprintf("must be at least %d characters (got: %d)", minLength, length))
	}
	if maxLength > 0 && length > maxLength {
		return NewValidationError(fieldName, fmt.Sprintf("must be at most %d characters (got: %d)", maxLength, length))
	}
	return nil
}

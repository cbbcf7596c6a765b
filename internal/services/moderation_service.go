package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/classifier"
	"github.com/boomchecker/moderation-gateway/internal/crypto"
	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/validators"
)

// Usage detail keys
const (
	DetailFilename     = "filename"
	DetailDetectedType = "detected_type"
	DetailTypeMismatch = "type_mismatch"
	DetailError        = "error"
)

const maxFilenameLength = 255

// Upload is an image received for moderation
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ModerationService validates uploads, classifies them and records usage
type ModerationService struct {
	classifier classifier.Classifier
	usage      UsageStore
	log        zerolog.Logger
	now        func() time.Time
}

// NewModerationService creates a new moderation service instance
func NewModerationService(c classifier.Classifier, usage UsageStore, log zerolog.Logger) *ModerationService {
	return &ModerationService{
		classifier: c,
		usage:      usage,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Moderate classifies an upload on behalf of an authenticated caller
func (s *ModerationService) Moderate(ctx context.Context, caller *models.Token, upload Upload) (*classifier.Result, error) {
	if caller == nil {
		return nil, fmt.Errorf("no authenticated token: %w", apperrors.ErrUnauthorized)
	}

	size := int64(len(upload.Data))
	if err := validators.ValidateImageUpload(upload.ContentType, size); err != nil {
		return nil, err
	}
	if err := validators.ValidateStringLength(upload.Filename, "filename", 0, maxFilenameLength); err != nil {
		return nil, err
	}

	declared := validators.NormalizeContentType(upload.ContentType)
	detected := mimetype.Detect(upload.Data).String()

	details := models.UsageDetails{DetailDetectedType: detected}
	if upload.Filename != "" {
		details[DetailFilename] = upload.Filename
	}
	if !mimetype.EqualsAny(detected, declared) {
		details[DetailTypeMismatch] = "true"
	}

	record := &models.UsageRecord{
		Token:    caller.Token,
		Endpoint: models.EndpointModerate,
		FileSize: size,
		FileType: declared,
		Details:  details,
	}

	result, err := s.classifier.Classify(ctx, upload.Data)
	if err != nil {
		record.Status = models.UsageStatusError
		details[DetailError] = err.Error()
		s.appendUsage(ctx, record)
		return nil, fmt.Errorf("%w: classification failed: %w", apperrors.ErrUpstream, err)
	}

	record.Status = models.UsageStatusSuccess
	s.appendUsage(ctx, record)

	return result, nil
}

// appendUsage writes the record; failures are logged and never surfaced
func (s *ModerationService) appendUsage(ctx context.Context, record *models.UsageRecord) {
	record.Timestamp = s.now()
	if err := s.usage.Append(ctx, record); err != nil {
		s.log.Error().
			Err(err).
			Str("token", crypto.Fingerprint(record.Token)).
			Str("status", record.Status).
			Msg("Failed to record usage")
	}
}

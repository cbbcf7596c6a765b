package models

import (
	"time"

	"gorm.io/gorm"
)

// Usage status values
const (
	UsageStatusSuccess = "success"
	UsageStatusError   = "error"
)

// EndpointModerate is the endpoint name recorded for image moderation calls
const EndpointModerate = "moderate"

// UsageDetails holds free-form metadata attached to a usage record
type UsageDetails map[string]string

// UsageRecord is an append-only audit entry written after a metered call.
// Records are never updated or deleted by the gateway.
type UsageRecord struct {
	ID uint `gorm:"primaryKey" json:"-" bson:"-"`

	// Token is the credential that made the call
	Token string `gorm:"type:text;not null;index" json:"token" bson:"token"`

	// Endpoint names the metered operation (e.g. "moderate")
	Endpoint string `gorm:"type:text;not null" json:"endpoint" bson:"endpoint"`

	// Timestamp is when the call completed, in UTC
	Timestamp time.Time `gorm:"type:datetime;not null;index" json:"timestamp" bson:"timestamp"`

	// FileSize is the uploaded payload size in bytes
	FileSize int64 `gorm:"type:integer;not null;default:0" json:"file_size" bson:"file_size"`

	// FileType is the declared content type of the upload
	FileType string `gorm:"type:text" json:"file_type,omitempty" bson:"file_type,omitempty"`

	// Status is "success" or "error"
	Status string `gorm:"type:text;not null;default:success" json:"status" bson:"status"`

	Details UsageDetails `gorm:"type:text;serializer:json" json:"details,omitempty" bson:"details,omitempty"`
}

// TableName overrides the default table name for GORM
func (UsageRecord) TableName() string {
	return "usages"
}

// BeforeCreate is a GORM hook that ensures the timestamp is set and in UTC
func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	} else {
		u.Timestamp = u.Timestamp.UTC()
	}
	if u.Status == "" {
		u.Status = UsageStatusSuccess
	}
	return nil
}

// IsSuccess reports whether the metered call succeeded
func (u *UsageRecord) IsSuccess() bool {
	return u.Status == UsageStatusSuccess
}

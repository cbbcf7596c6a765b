package models

import (
	"time"

	"gorm.io/gorm"
)

// Token is a bearer credential accepted by the gateway.
// All timestamps are stored in UTC.
type Token struct {
	// ID is the internal row identifier (SQL stores only)
	ID uint `gorm:"primaryKey" json:"-" bson:"-"`

	// Token is the opaque credential value presented as "Authorization: Bearer <token>"
	// Format: 43 characters of URL-safe base64 (32 random bytes, no padding)
	Token string `gorm:"type:text;not null;uniqueIndex" json:"token" bson:"token"`

	// IsAdmin grants token lifecycle management. Immutable after creation.
	IsAdmin bool `gorm:"not null;default:false" json:"is_admin" bson:"is_admin"`

	// CreatedAt is the creation timestamp (immutable)
	CreatedAt time.Time `gorm:"type:datetime;not null" json:"created_at" bson:"created_at"`

	// LastUsed is updated on every successful authentication
	// NULL until the token is used for the first time
	LastUsed *time.Time `gorm:"type:datetime" json:"last_used" bson:"last_used,omitempty"`
}

// TableName overrides the default table name for GORM
func (Token) TableName() string {
	return "tokens"
}

// BeforeCreate is a GORM hook that ensures timestamps are in UTC
func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	} else {
		t.CreatedAt = t.CreatedAt.UTC()
	}
	if t.LastUsed != nil {
		utcTime := t.LastUsed.UTC()
		t.LastUsed = &utcTime
	}
	return nil
}

// HasBeenUsed reports whether the token ever authenticated a request
func (t *Token) HasBeenUsed() bool {
	return t.LastUsed != nil
}

// TokenCreatedResponse is returned once, right after a token is issued
type TokenCreatedResponse struct {
	Token     string    `json:"token"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatedResponse projects the token onto the creation response shape
func (t *Token) CreatedResponse() TokenCreatedResponse {
	return TokenCreatedResponse{
		Token:     t.Token,
		IsAdmin:   t.IsAdmin,
		CreatedAt: t.CreatedAt,
	}
}

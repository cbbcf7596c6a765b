package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// TokenSize is the number of random bytes in a generated token (256 bits)
	TokenSize = 32

	// fingerprintLength is the number of hex characters kept by Fingerprint
	fingerprintLength = 12
)

// GenerateToken generates a cryptographically secure random bearer token.
// The token is base64-url-encoded without padding for safe use in URLs and headers.
func GenerateToken() (string, error) {
	bytes := make([]byte, TokenSize)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// ConstantTimeEqual compares two token values without leaking timing information
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashToken creates a SHA-256 hash of a token
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Fingerprint returns a short, non-reversible identifier for a token that is
// safe to write to logs
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return HashToken(token)[:fingerprintLength]
}

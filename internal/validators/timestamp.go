package validators

import "time"

// ISO8601UTC is the timestamp format used in API responses
const ISO8601UTC = "2006-01-02T15:04:05Z"

// FormatUTCTimestamp formats time.Time to UTC ISO 8601 string
// Always returns format: 2025-11-10T14:30:00Z
func FormatUTCTimestamp(t time.Time) string {
	return t.UTC().Format(ISO8601UTC)
}

package utils

import "time"

// FormatRFC3339 formats t as UTC RFC3339
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package repository

import (
	"fmt"
	"time"
)

// timestampLayout is fixed-width so stored timestamps sort lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in UTC using the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTime parses a stored timestamp. It accepts the storage layout as well as
// "2006-01-02" and RFC3339 for rows written by other tools.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", str)
}

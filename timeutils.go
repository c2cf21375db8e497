package belgiantrain

import (
	"time"
)

func iso8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// iso8601OrNil renders zero times as JSON null instead of year 1.
func iso8601OrNil(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := iso8601(t)
	return &s
}

package shared

import "time"

const dateOnly = "2006-01-02"

// ParseDate accepts RFC3339 timestamps or bare YYYY-MM-DD dates, which is
// what the branch dashboards send for check and audit filters. Empty input
// parses to the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(dateOnly, value)
}

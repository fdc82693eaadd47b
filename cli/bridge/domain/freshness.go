package domain

import (
	"strings"
	"time"
)

const vendorTimeLayout = "2006-01-02T15:04:05"

// ParsePositionTime разбирает время позиции вендора ("2006-01-02 15:04:05").
// Время без зоны трактуется в loc.
func ParsePositionTime(timestamp string, loc *time.Location) (time.Time, error) {
	cleaned := strings.Replace(strings.TrimSpace(timestamp), " ", "T", 1)

	if t, err := time.Parse(time.RFC3339, cleaned); err == nil {
		return t, nil
	}

	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(vendorTimeLayout, cleaned, loc); err == nil {
		return t, nil
	}

	return time.ParseInLocation("2006-01-02T15:04", cleaned, loc)
}

// IsFresh сообщает, что позиция получена строго позже now-window.
// Неразборчивое время считается устаревшим.
func IsFresh(timestamp string, now time.Time, window time.Duration, loc *time.Location) bool {
	t, err := ParsePositionTime(timestamp, loc)
	if err != nil {
		return false
	}
	return t.After(now.Add(-window))
}

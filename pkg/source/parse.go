package source

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/2006",
	"01/02/2006",
	"2006-01-02T15:04:05",
	"Jan 2006",
}

// ParseFloat converts a raw source value to a float. The second return
// is false when the value is empty or not numeric; callers treat that
// as an absent value, never as an error.
func ParseFloat(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt converts a raw source value to an integer, tolerating a
// trailing decimal part of zero ("1.0"), which some source exports use
// for flag columns.
func ParseInt(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// ParseDate converts a raw source date in any known layout. The second
// return is false when the value is empty or in no recognizable layout.
// Month-resolution dates anchor to the first of the month.
func ParseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate reformats a recognizable source date to 2006-01-02.
// Values in no known layout pass through trimmed, so odd source formats
// survive the export verbatim instead of being dropped.
func NormalizeDate(raw string) string {
	if t, ok := ParseDate(raw); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(raw)
}

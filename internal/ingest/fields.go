package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var truthy = map[string]struct{}{"yes": {}, "true": {}, "1": {}, "y": {}}

// timeLayouts is tried in order; the first layout that parses wins.
// Month-first is tried before day-first for slash dates.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
}

// ParseBool reports whether a cell is one of yes/true/1/y, ignoring case and padding
func ParseBool(value string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// ParsePercent parses "85%", "85.4" or "150" into an integer clamped to [0,100].
// Anything unparseable is 0.
func ParsePercent(value string) int {
	value = strings.TrimSpace(value)
	value = strings.TrimSpace(strings.TrimSuffix(value, "%"))
	n, ok := parseTruncated(value)
	if !ok {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// ParseMinutes parses a minute count, truncating fractions. Unparseable or negative is 0.
func ParseMinutes(value string) int {
	n, ok := parseTruncated(strings.TrimSpace(value))
	if !ok || n < 0 {
		return 0
	}
	return n
}

// ParseDateTime tries each known layout and returns nil when none match
func ParseDateTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// NormalizeEmail returns the canonical join key for an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseTruncated(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// out-of-range floats saturate rather than overflow int
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}

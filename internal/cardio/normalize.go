package cardio

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultActivityLabel = "Workout"
	kmPerMile            = 1.60934
	dateKeyLayout        = "2006-01-02"
)

var activityLabels = map[string]string{
	"outdoor walk":  "Outdoor Walk",
	"indoor walk":   "Indoor Walk",
	"outdoor run":   "Outdoor Run",
	"indoor run":    "Indoor Run",
	"cycling":       "Cycling",
	"elliptical":    "Elliptical",
	"rowing":        "Rowing",
	"stair stepper": "Stair Stepper",
	"swimming":      "Swimming",
}

var (
	leadingNumber  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	explicitOffset = regexp.MustCompile(`([zZ]|[+-]\d{2}:?\d{2})$`)
)

var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05Z0700",
	}
	wallClockLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		dateKeyLayout,
	}
)

// SafeNumber coerces numbers and numeric strings into a finite float64.
// Anything else, including NaN and infinities, yields 0.
// Strings are read up to their first non numeric character, so "350 kcal" is 350.
func SafeNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		prefix := leadingNumber.FindString(strings.TrimSpace(n))
		if prefix == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ToLocalDateTime converts a raw timestamp into wall-clock time in loc.
// Accepted inputs are time.Time, epoch milliseconds and strings. A string
// without a trailing Z or numeric offset is already local wall-clock time and
// is not shifted.
func ToLocalDateTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.In(loc), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.In(loc), true
	case string:
		return parseTimestamp(strings.TrimSpace(t), loc)
	}

	ms := SafeNumber(v)
	if ms == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Round(ms))).In(loc), true
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if explicitOffset.MatchString(s) {
		for _, layout := range offsetLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(loc), true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToLocalBucketDate maps a raw timestamp to noon of its local calendar date,
// the instant used to place day-level rows into buckets.
func ToLocalBucketDate(v any, loc *time.Location) (time.Time, bool) {
	t, ok := ToLocalDateTime(v, loc)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, loc), true
}

// DateKey formats the local calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

func NormalizeActivityName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultActivityLabel
	}
	if label, ok := activityLabels[strings.ToLower(trimmed)]; ok {
		return label
	}
	return raw
}

// DistanceToKm converts a distance in the given unit to kilometers.
// An empty unit means meters.
func DistanceToKm(value float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "m", "meter", "meters":
		return value / 1000, true
	case "km", "kilometer", "kilometers":
		return value, true
	case "mi", "mile", "miles":
		return value * kmPerMile, true
	default:
		return 0, false
	}
}

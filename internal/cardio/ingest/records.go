package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
)

// lookup walks nested objects of a raw record, e.g. lookup(rec, "metadata", "id").
func lookup(rec map[string]any, path ...string) (any, bool) {
	var cur any = map[string]any(rec)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// first returns the first present top level field among keys.
func first(rec map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := lookup(rec, key); ok {
			return v
		}
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case health.RawRecord:
		return obj, true
	default:
		return nil, false
	}
}

func asObjects(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []health.RawRecord:
		objects := make([]map[string]any, 0, len(list))
		for _, rec := range list {
			objects = append(objects, rec)
		}
		return objects
	case []any:
		objects := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if obj, ok := asObject(item); ok {
				objects = append(objects, obj)
			}
		}
		return objects
	default:
		return nil
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	case float64, int, int64:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

// heartRateSamples folds every positive bpm reading of the samples into a sum and count.
func heartRateSamples(v any, keys ...string) (float64, int) {
	var sum float64
	var count int
	for _, sample := range asObjects(v) {
		bpm := cardio.SafeNumber(first(sample, keys...))
		if bpm > 0 {
			sum += bpm
			count++
		}
	}
	return sum, count
}

func sessionTimes(rec map[string]any, loc *time.Location, startKeys, endKeys []string) (time.Time, time.Time, error) {
	start, ok := cardio.ToLocalDateTime(first(rec, startKeys...), loc)
	if !ok {
		return time.Time{}, time.Time{}, health.NewMalformedRecordError("missing or invalid %s", startKeys[0])
	}
	end, ok := cardio.ToLocalDateTime(first(rec, endKeys...), loc)
	if !ok {
		return time.Time{}, time.Time{}, health.NewMalformedRecordError("missing or invalid %s", endKeys[0])
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, health.NewMalformedRecordError("ends at %s before it starts at %s", end, start)
	}
	return start, end, nil
}

func dailyDate(rec map[string]any, loc *time.Location, keys ...string) (time.Time, error) {
	date, ok := cardio.ToLocalBucketDate(first(rec, keys...), loc)
	if !ok {
		return time.Time{}, health.NewMalformedRecordError("missing or invalid %s", keys[0])
	}
	return date, nil
}

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
)

const (
	AndroidPageSize = 500
	// workouts that start or end within this window of each other are one workout
	workoutMatchWindow = 5 * time.Minute
)

// NewAndroidAdapter reads Health Connect shaped records. Sessions are read
// page by page when the provider supports it, duplicate sessions reported by
// several apps are merged, and workouts without a heart rate get the average
// of their bucket.
func NewAndroidAdapter(params Params) Adapter {
	p := newPipeline(health.PlatformAndroidLike, "ingest.android.populate", params)
	p.normalizeSession = normalizeAndroidSession
	p.normalizeDaily = normalizeAndroidDaily
	p.placeSession = mergeWorkout
	p.finalize = backfillHeartRate
	if paged, ok := params.Provider.(health.PagedProvider); ok {
		p.querySessions = func(ctx context.Context, start, end time.Time) ([]health.RawRecord, error) {
			return readAllSessionPages(ctx, paged, start, end)
		}
	}
	return p
}

func readAllSessionPages(ctx context.Context, provider health.PagedProvider, start, end time.Time) ([]health.RawRecord, error) {
	var records []health.RawRecord
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := provider.QueryWorkoutSessionsPage(ctx, start, end, pageToken, AndroidPageSize)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", pageToken, err)
		}
		records = append(records, page.Records...)
		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return records, nil
		}
		pageToken = page.NextPageToken
	}
}

func normalizeAndroidSession(rec health.RawRecord, loc *time.Location) (session, error) {
	start, end, err := sessionTimes(rec, loc, []string{"startTime"}, []string{"endTime"})
	if err != nil {
		return session{}, err
	}

	activity := asString(first(rec, "exerciseType", "activityType"))
	if activity == "" {
		activity = cardio.DefaultActivityLabel
	}
	id, _ := lookup(rec, "metadata", "id")
	origin, _ := lookup(rec, "metadata", "dataOrigin")

	s := session{
		id:              asString(id),
		activity:        cardio.NormalizeActivityName(activity),
		start:           start,
		end:             end,
		durationMinutes: end.Sub(start).Minutes(),
		source:          asString(origin),
	}
	if s.id == "" {
		s.id = fmt.Sprintf("android-session-%d", end.UnixMilli())
	}

	if value, ok := lookup(rec, "distance", "value"); ok {
		unit, _ := lookup(rec, "distance", "unit")
		if km, ok := cardio.DistanceToKm(cardio.SafeNumber(value), asString(unit)); ok && km > 0 {
			s.distanceKm = km
		}
	}
	if energy, ok := lookup(rec, "energy", "value"); ok {
		s.calories = cardio.SafeNumber(energy)
	}
	s.steps = cardio.SafeNumber(rec["steps"])
	s.heartRateSum, s.heartRateCount = heartRateSamples(rec["samples"], "beatsPerMinute", "bpm")
	return s, nil
}

func normalizeAndroidDaily(metric health.DailyMetric, rec health.RawRecord, loc *time.Location) (dailyRow, error) {
	switch metric {
	case health.DailyMetricSteps:
		date, err := dailyDate(rec, loc, "endTime", "startTime")
		if err != nil {
			return dailyRow{}, err
		}
		return dailyRow{date: date, value: cardio.SafeNumber(rec["count"])}, nil
	case health.DailyMetricActiveCalories:
		date, err := dailyDate(rec, loc, "startTime", "endTime")
		if err != nil {
			return dailyRow{}, err
		}
		energy, _ := lookup(rec, "energy", "value")
		return dailyRow{date: date, value: cardio.SafeNumber(energy)}, nil
	default:
		return dailyRow{}, health.NewMalformedRecordError("unknown daily metric %q", metric)
	}
}

// mergeWorkout folds the session into a workout of the bucket with the same id
// or a matching time span. Only a new workout contributes minutes. A merged
// session keeps the larger of each measured value, and the totals only grow
// by what it adds on top of the workout.
func mergeWorkout(b *cardio.Bucket, s session) session {
	idx := matchingWorkout(b.Workouts, s)
	if idx < 0 {
		return appendWorkout(b, s)
	}

	w := &b.Workouts[idx]
	if s.start.Before(w.Start) {
		w.Start = s.start
	}
	if s.end.After(w.End) {
		w.End = s.end
	}
	w.DurationMinutes = max(w.DurationMinutes, s.durationMinutes)
	if w.Source == "" {
		w.Source = s.source
	}
	if w.Activity == "" {
		w.Activity = s.activity
	}
	added := session{
		distanceKm:     max(w.DistanceKm, s.distanceKm) - w.DistanceKm,
		calories:       max(w.Calories, s.calories) - w.Calories,
		steps:          max(w.Steps, s.steps) - w.Steps,
		heartRateSum:   s.heartRateSum,
		heartRateCount: s.heartRateCount,
	}
	w.DistanceKm += added.distanceKm
	w.Calories += added.calories
	w.Steps += added.steps
	if w.AverageHeartRate == 0 && s.heartRateCount > 0 {
		w.AverageHeartRate = s.heartRateSum / float64(s.heartRateCount)
	}
	return added
}

func matchingWorkout(workouts []cardio.WorkoutSummary, s session) int {
	for i := range workouts {
		if workouts[i].ID == s.id {
			return i
		}
	}
	for i, w := range workouts {
		startDiff := w.Start.Sub(s.start).Abs()
		endDiff := w.End.Sub(s.end).Abs()
		overlaps := !s.start.After(w.End.Add(workoutMatchWindow)) && !s.end.Before(w.Start.Add(-workoutMatchWindow))
		if startDiff <= workoutMatchWindow || endDiff <= workoutMatchWindow || overlaps {
			return i
		}
	}
	return -1
}

func backfillHeartRate(buckets []cardio.Bucket) {
	for i := range buckets {
		b := &buckets[i]
		avg, ok := b.AverageHeartRate()
		if !ok {
			continue
		}
		for j := range b.Workouts {
			if b.Workouts[j].AverageHeartRate == 0 {
				b.Workouts[j].AverageHeartRate = avg
			}
		}
	}
}

package healthsource

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

const syntheticSourceName = "synthetic"

var _ health.PagedProvider = (*SyntheticSource)(nil)

type syntheticActivity struct {
	name string
	// km per hour, 0 when the activity has no distance
	speed float64
}

var syntheticActivities = []syntheticActivity{
	{name: "running", speed: 10},
	{name: "walking", speed: 5},
	{name: "cycling", speed: 22},
	{name: "hiking", speed: 4},
	{name: "rowing", speed: 8},
	{name: "elliptical", speed: 0},
}

// SyntheticSource generates plausible health data for development. Each
// calendar day is generated from its own seed, so overlapping windows always
// see the same records.
type SyntheticSource struct {
	platform health.Platform
	seed     int64
	location *time.Location
}

func NewSyntheticSource(platform health.Platform, seed int64, location *time.Location) *SyntheticSource {
	if location == nil {
		location = time.Local
	}
	return &SyntheticSource{
		platform: platform,
		seed:     seed,
		location: location,
	}
}

func (s *SyntheticSource) RequestPermissions(_ context.Context, _ []health.Capability) error {
	if s.platform == health.PlatformUnsupported {
		return health.ErrProviderUnavailable
	}
	return nil
}

func (s *SyntheticSource) QueryWorkoutSessions(ctx context.Context, start, end time.Time) ([]health.RawRecord, error) {
	var records []health.RawRecord
	for _, day := range s.days(start, end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, w := range s.workouts(day) {
			if w.end.Before(start) || w.end.After(end) {
				continue
			}
			records = append(records, s.sessionRecord(w))
		}
	}
	return records, nil
}

// QueryWorkoutSessionsPage serves the window in pages. The page token is the
// offset of the first record of the page.
func (s *SyntheticSource) QueryWorkoutSessionsPage(ctx context.Context, start, end time.Time, pageToken string, pageSize int) (health.SessionPage, error) {
	offset := 0
	if pageToken != "" {
		var err error
		offset, err = strconv.Atoi(pageToken)
		if err != nil || offset < 0 {
			return health.SessionPage{}, fmt.Errorf("%w: %q", ErrInvalidPageToken, pageToken)
		}
	}
	if pageSize <= 0 {
		pageSize = 500
	}

	records, err := s.QueryWorkoutSessions(ctx, start, end)
	if err != nil {
		return health.SessionPage{}, err
	}
	if offset >= len(records) {
		return health.SessionPage{Records: []health.RawRecord{}}, nil
	}

	page := health.SessionPage{Records: records[offset:]}
	if next := offset + pageSize; next < len(records) {
		page.Records = records[offset:next]
		page.NextPageToken = strconv.Itoa(next)
	}
	return page, nil
}

func (s *SyntheticSource) QueryDailyAggregate(ctx context.Context, metric health.DailyMetric, start, end time.Time) ([]health.RawRecord, error) {
	var rows []health.RawRecord
	for _, day := range s.days(start, end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		faker := s.dayFaker(day, string(metric))
		dayStart := day
		dayEnd := day.Add(24*time.Hour - time.Second)

		switch metric {
		case health.DailyMetricSteps:
			steps := float64(faker.Number(2500, 14000))
			if s.platform == health.PlatformAndroidLike {
				rows = append(rows, health.RawRecord{
					"startTime": dayStart.Format(time.RFC3339),
					"endTime":   dayEnd.Format(time.RFC3339),
					"count":     steps,
				})
			} else {
				rows = append(rows, health.RawRecord{
					"startDate": dayStart.Format(dayLayout),
					"value":     steps,
				})
			}
		case health.DailyMetricActiveCalories:
			calories := math.Round(faker.Float64Range(150, 700))
			if s.platform == health.PlatformAndroidLike {
				rows = append(rows, health.RawRecord{
					"startTime": dayStart.Format(time.RFC3339),
					"endTime":   dayEnd.Format(time.RFC3339),
					"energy":    map[string]any{"value": calories},
				})
			} else {
				rows = append(rows, health.RawRecord{
					"startDate": dayStart.Format(dayLayout),
					"value":     calories,
				})
			}
		default:
			return nil, fmt.Errorf("unknown daily metric %q", metric)
		}
	}
	return rows, nil
}

type syntheticWorkout struct {
	id         string
	activity   string
	start, end time.Time
	distanceKm float64
	calories   float64
	heartRate  []float64
}

// workouts returns zero to two workouts for the local day starting at day.
func (s *SyntheticSource) workouts(day time.Time) []syntheticWorkout {
	faker := s.dayFaker(day, "workouts")
	count := faker.Number(0, 2)
	workouts := make([]syntheticWorkout, 0, count)
	for i := 0; i < count; i++ {
		activity := syntheticActivities[faker.Number(0, len(syntheticActivities)-1)]
		start := day.Add(time.Duration(faker.Number(6*60, 19*60)) * time.Minute)
		minutes := faker.Number(15, 75)

		id, err := uuid.NewRandomFromReader(faker.Rand)
		if err != nil {
			id = uuid.New()
		}

		w := syntheticWorkout{
			id:       id.String(),
			activity: activity.name,
			start:    start,
			end:      start.Add(time.Duration(minutes) * time.Minute),
			calories: math.Round(float64(minutes) * faker.Float64Range(6, 11)),
		}
		if activity.speed > 0 {
			km := float64(minutes) / 60 * activity.speed * faker.Float64Range(0.85, 1.15)
			w.distanceKm = math.Round(km*100) / 100
		}
		avg := float64(faker.Number(105, 160))
		for j := 0; j < 5; j++ {
			w.heartRate = append(w.heartRate, avg+float64(faker.Number(-8, 8)))
		}
		workouts = append(workouts, w)
	}
	return workouts
}

func (s *SyntheticSource) sessionRecord(w syntheticWorkout) health.RawRecord {
	if s.platform == health.PlatformAndroidLike {
		samples := make([]any, 0, len(w.heartRate))
		for _, bpm := range w.heartRate {
			samples = append(samples, map[string]any{"beatsPerMinute": bpm})
		}
		rec := health.RawRecord{
			"metadata":     map[string]any{"id": w.id, "dataOrigin": syntheticSourceName},
			"startTime":    w.start.Format(time.RFC3339),
			"endTime":      w.end.Format(time.RFC3339),
			"exerciseType": w.activity,
			"energy":       map[string]any{"value": w.calories},
			"samples":      samples,
		}
		if w.distanceKm > 0 {
			rec["distance"] = map[string]any{"value": w.distanceKm, "unit": "km"}
		}
		return rec
	}

	heartRate := make([]any, 0, len(w.heartRate))
	for _, bpm := range w.heartRate {
		heartRate = append(heartRate, map[string]any{"bpm": bpm})
	}
	rec := health.RawRecord{
		"id":          w.id,
		"startDate":   w.start.Format(time.RFC3339),
		"endDate":     w.end.Format(time.RFC3339),
		"duration":    w.end.Sub(w.start).Seconds(),
		"workoutType": w.activity,
		"calories":    w.calories,
		"sourceName":  syntheticSourceName,
		"heartRate":   heartRate,
	}
	if w.distanceKm > 0 {
		rec["distance"] = w.distanceKm * 1000
	}
	return rec
}

// days lists the local midnights of every day the window touches.
func (s *SyntheticSource) days(start, end time.Time) []time.Time {
	if end.Before(start) {
		return nil
	}
	start = start.In(s.location)
	end = end.In(s.location)
	var days []time.Time
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.location)
	for !day.After(end) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func (s *SyntheticSource) dayFaker(day time.Time, stream string) *gofakeit.Faker {
	dayNumber := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
	var streamSeed int64
	for _, c := range stream {
		streamSeed = streamSeed*31 + int64(c)
	}
	return gofakeit.New(s.seed + dayNumber*1_000_003 + streamSeed)
}

// SyncRequest builds the upload a device on the source platform would send
// for the window, so the synthetic data can seed the postgres store.
func (s *SyntheticSource) SyncRequest(ctx context.Context, start, end time.Time) (SyncRequest, error) {
	if s.platform == health.PlatformUnsupported {
		return SyncRequest{}, health.ErrProviderUnavailable
	}

	req := SyncRequest{
		Platform: string(s.platform),
		Grants:   health.ReadCapabilities,
	}
	for _, day := range s.days(start, end) {
		if err := ctx.Err(); err != nil {
			return SyncRequest{}, err
		}
		for _, w := range s.workouts(day) {
			if w.end.Before(start) || w.end.After(end) {
				continue
			}
			req.Sessions = append(req.Sessions, SyncSession{
				ID:      w.id,
				EndTime: w.end,
				Payload: s.sessionRecord(w),
			})
		}
	}

	for _, metric := range []health.DailyMetric{health.DailyMetricSteps, health.DailyMetricActiveCalories} {
		rows, err := s.QueryDailyAggregate(ctx, metric, start, end)
		if err != nil {
			return SyncRequest{}, err
		}
		days := s.days(start, end)
		for i, row := range rows {
			req.Daily = append(req.Daily, SyncDaily{
				Metric:  metric,
				Day:     days[i].Format(dayLayout),
				Payload: row,
			})
		}
	}
	return req, nil
}

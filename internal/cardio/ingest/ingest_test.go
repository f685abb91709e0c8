package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/cardio/health/healthmock"
	"github.com/2beens/cardioprogress/internal/cardio/ingest"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testLoc = time.FixedZone("CEST", 2*60*60)
	testNow = time.Date(2024, time.May, 15, 18, 0, 0, 0, testLoc)
)

// weekBuckets returns previous and current week buckets as one slice, plus the window.
func weekBuckets() ([]cardio.Bucket, time.Time, time.Time) {
	sets := cardio.BuildBucketSets(cardio.RangeWeek, testNow)
	all := append(append([]cardio.Bucket{}, sets.Previous...), sets.Current...)
	start, end := sets.Window()
	return all, start, end
}

// bucketOf returns the bucket holding the local date.
func bucketOf(t *testing.T, buckets []cardio.Bucket, day int) *cardio.Bucket {
	t.Helper()
	b := cardio.FindBucket(buckets, time.Date(2024, time.May, day, 12, 0, 0, 0, testLoc))
	require.NotNil(t, b)
	return b
}

type malformedCounter struct {
	count     int
	platforms []health.Platform
}

func (c *malformedCounter) observe(platform health.Platform) {
	c.count++
	c.platforms = append(c.platforms, platform)
}

func newParams(provider health.PlatformHealthProvider) (ingest.Params, *malformedCounter, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.TraceLevel)
	counter := &malformedCounter{}
	return ingest.Params{
		Provider:    provider,
		Location:    testLoc,
		Logger:      logger,
		OnMalformed: counter.observe,
	}, counter, hook
}

func TestSelect(t *testing.T) {
	ctrl := gomock.NewController(t)
	params, _, _ := newParams(healthmock.NewMockPlatformHealthProvider(ctrl))

	adapter, ok := ingest.Select(health.PlatformIOSLike, params)
	assert.True(t, ok)
	assert.NotNil(t, adapter)

	adapter, ok = ingest.Select(health.PlatformAndroidLike, params)
	assert.True(t, ok)
	assert.NotNil(t, adapter)

	adapter, ok = ingest.Select(health.PlatformUnsupported, params)
	assert.False(t, ok)
	assert.Nil(t, adapter)
}

func TestIOSAdapter_DailyAggregateWinsOverSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	gomock.InOrder(
		provider.EXPECT().RequestPermissions(gomock.Any(), health.ReadCapabilities).Return(nil),
		provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return([]health.RawRecord{
			{
				"id":          "run-1",
				"startDate":   "2024-05-14T07:00:00",
				"endDate":     "2024-05-14T07:45:00",
				"duration":    2700,
				"distance":    "8500",
				"calories":    410.5,
				"steps":       500,
				"workoutType": "outdoor run",
				"sourceName":  "Watch",
				"heartRate": []any{
					map[string]any{"bpm": 140},
					map[string]any{"beatsPerMinute": "150"},
					map[string]any{"bpm": 0},
				},
			},
		}, nil),
		provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return([]health.RawRecord{
			{"startDate": "2024-05-14", "value": 8000},
			{"startDate": "2024-05-13", "value": 0},
		}, nil),
		provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricActiveCalories, start, end).Return(nil, nil),
	)

	params, counter, _ := newParams(provider)
	require.NoError(t, ingest.NewIOSAdapter(params).Populate(context.Background(), buckets, start, end))

	b := bucketOf(t, buckets, 14)
	assert.Equal(t, 8000.0, b.Totals.Steps, "daily aggregate must win, not be summed with the session")
	assert.Equal(t, 410.5, b.Totals.Calories, "calories fall back to the session value")
	assert.Equal(t, 45.0, b.Totals.Minutes)
	assert.InDelta(t, 8.5, b.Totals.DistanceKm, 1e-9)
	assert.Equal(t, 290.0, b.Totals.HeartRateSum)
	assert.Equal(t, 2, b.Totals.HeartRateCount)

	require.Len(t, b.Workouts, 1)
	w := b.Workouts[0]
	assert.Equal(t, "run-1", w.ID)
	assert.Equal(t, "Outdoor Run", w.Activity)
	assert.Equal(t, "Watch", w.Source)
	assert.Equal(t, 145.0, w.AverageHeartRate)
	assert.Equal(t, time.Date(2024, time.May, 14, 7, 0, 0, 0, testLoc), w.Start)

	assert.Zero(t, bucketOf(t, buckets, 13).Totals.Steps)
	assert.Zero(t, counter.count)
}

func TestIOSAdapter_SessionFallbackWithoutAggregates(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return([]health.RawRecord{
		{"startDate": "2024-05-12T10:00:00Z", "endDate": "2024-05-12T10:30:00Z", "steps": 3000, "calories": 200},
		{"startDate": "2024-05-12T18:00:00", "endDate": "2024-05-12T18:20:00", "steps": 1000, "totalEnergyBurned": "100 kcal"},
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), gomock.Any(), start, end).Return([]health.RawRecord{}, nil).Times(2)

	params, _, _ := newParams(provider)
	require.NoError(t, ingest.NewIOSAdapter(params).Populate(context.Background(), buckets, start, end))

	b := bucketOf(t, buckets, 12)
	assert.Equal(t, 4000.0, b.Totals.Steps)
	assert.Equal(t, 300.0, b.Totals.Calories)
	assert.Equal(t, 50.0, b.Totals.Minutes, "duration falls back to end minus start")
	require.Len(t, b.Workouts, 2)
	assert.Equal(t, cardio.DefaultActivityLabel, b.Workouts[0].Activity)
	// the offset bearing timestamp is converted into the local zone
	assert.Equal(t, time.Date(2024, time.May, 12, 12, 0, 0, 0, testLoc), b.Workouts[0].Start)
	assert.Equal(t, "ios-1715530800000", b.Workouts[1].ID)
}

func TestIOSAdapter_SkipsOutOfWindowAndMalformed(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return([]health.RawRecord{
		// ends after the window
		{"startDate": "2024-05-15T23:30:00", "endDate": "2024-05-16T00:30:00", "duration": 3600},
		// ends before the window
		{"startDate": "2024-04-01T10:00:00", "endDate": "2024-04-01T11:00:00", "duration": 3600},
		{"startDate": "2024-05-10T10:00:00"},
		{"startDate": "not a date", "endDate": "2024-05-10T10:00:00"},
		{"startDate": "2024-05-10T10:00:00", "endDate": "2024-05-10T09:00:00"},
		{"startDate": "2024-05-10T10:00:00", "endDate": "2024-05-10T10:10:00", "duration": "NaN"},
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return([]health.RawRecord{
		{"value": 100},
		{"startDate": "2024-05-10", "value": "abc"},
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricActiveCalories, start, end).Return(nil, nil)

	params, counter, hook := newParams(provider)
	require.NoError(t, ingest.NewIOSAdapter(params).Populate(context.Background(), buckets, start, end))

	var minutes float64
	var workouts int
	for _, b := range buckets {
		minutes += b.Totals.Minutes
		workouts += len(b.Workouts)
		assert.Zero(t, b.Totals.Steps)
	}
	assert.Equal(t, 10.0, minutes)
	assert.Equal(t, 1, workouts)

	assert.Equal(t, 4, counter.count)
	assert.Equal(t, health.PlatformIOSLike, counter.platforms[0])

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			warnings++
			assert.Equal(t, "iosLike", entry.Data["platform"])
			assert.NotEmpty(t, entry.Data["reason"])
		}
	}
	assert.Equal(t, 4, warnings)
}

func TestIOSAdapter_PermissionDeniedPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(health.ErrPermissionDenied)

	params, _, _ := newParams(provider)
	err := ingest.NewIOSAdapter(params).Populate(context.Background(), buckets, start, end)
	require.ErrorIs(t, err, health.ErrPermissionDenied)
	for _, b := range buckets {
		assert.Zero(t, b.Totals)
	}
}

func TestIOSAdapter_QueryFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()
	queryErr := errors.New("healthkit store closed")

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return(nil, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return(nil, queryErr)

	params, _, _ := newParams(provider)
	err := ingest.NewIOSAdapter(params).Populate(context.Background(), buckets, start, end)
	require.ErrorIs(t, err, queryErr)

	var qErr *health.QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "steps", qErr.Query)
}

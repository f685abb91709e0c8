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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func androidSession(id, start, end string) health.RawRecord {
	rec := health.RawRecord{
		"startTime":    start,
		"endTime":      end,
		"exerciseType": "cycling",
	}
	if id != "" {
		rec["metadata"] = map[string]any{"id": id, "dataOrigin": "com.strava"}
	}
	return rec
}

func TestAndroidAdapter_PagesMergesAndBackfills(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPagedProvider(ctrl)
	buckets, start, end := weekBuckets()

	first := androidSession("ride-1", "2024-05-11T08:00:00", "2024-05-11T09:00:00")
	first["distance"] = map[string]any{"value": 20000.0, "unit": "meter"}
	first["energy"] = map[string]any{"value": 600}

	// same ride reported by a second app, three minutes off
	duplicate := androidSession("", "2024-05-11T08:03:00", "2024-05-11T09:10:00")
	duplicate["metadata"] = map[string]any{"dataOrigin": "com.garmin"}

	// same id, later page
	sameID := androidSession("ride-1", "2024-05-11T07:55:00", "2024-05-11T08:50:00")

	walk := health.RawRecord{
		"startTime":    "2024-05-11T18:00:00",
		"endTime":      "2024-05-11T18:30:00",
		"activityType": "outdoor walk",
		"distance":     map[string]any{"value": 2, "unit": "mile"},
		"samples": []any{
			map[string]any{"beatsPerMinute": 100},
			map[string]any{"beatsPerMinute": 120},
		},
	}

	gomock.InOrder(
		provider.EXPECT().RequestPermissions(gomock.Any(), health.ReadCapabilities).Return(nil),
		provider.EXPECT().QueryWorkoutSessionsPage(gomock.Any(), start, end, "", ingest.AndroidPageSize).
			Return(health.SessionPage{Records: []health.RawRecord{first, duplicate}, NextPageToken: "p2"}, nil),
		provider.EXPECT().QueryWorkoutSessionsPage(gomock.Any(), start, end, "p2", ingest.AndroidPageSize).
			Return(health.SessionPage{Records: []health.RawRecord{sameID, walk}}, nil),
		provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return([]health.RawRecord{
			{"startTime": "2024-05-11T00:00:00", "endTime": "2024-05-11T23:59:00", "count": 6000},
			{"startTime": "2024-05-11T10:00:00", "endTime": "2024-05-11T11:00:00", "count": "1500"},
		}, nil),
		provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricActiveCalories, start, end).Return([]health.RawRecord{
			{"startTime": "2024-05-11T08:00:00", "energy": map[string]any{"value": 900}},
		}, nil),
	)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	params, counter, _ := newParams(provider)
	require.NoError(t, ingest.NewAndroidAdapter(params).Populate(context.Background(), buckets, start, end))

	b := bucketOf(t, buckets, 11)
	require.Len(t, b.Workouts, 2)

	ride := b.Workouts[0]
	assert.Equal(t, "ride-1", ride.ID)
	assert.Equal(t, "Cycling", ride.Activity)
	assert.Equal(t, "com.strava", ride.Source)
	assert.Equal(t, time.Date(2024, time.May, 11, 7, 55, 0, 0, testLoc), ride.Start)
	assert.Equal(t, time.Date(2024, time.May, 11, 9, 10, 0, 0, testLoc), ride.End)
	assert.Equal(t, 67.0, ride.DurationMinutes)
	assert.Equal(t, 20.0, ride.DistanceKm)
	assert.Equal(t, 600.0, ride.Calories)
	// no own samples, takes the bucket average
	assert.Equal(t, 110.0, ride.AverageHeartRate)

	walkSummary := b.Workouts[1]
	assert.Equal(t, "Outdoor Walk", walkSummary.Activity)
	assert.Equal(t, 110.0, walkSummary.AverageHeartRate)
	assert.InDelta(t, 3.21868, walkSummary.DistanceKm, 1e-9)
	assert.Contains(t, walkSummary.ID, "android-session-")

	// merged sessions add their minutes only once
	assert.Equal(t, 60.0+30.0, b.Totals.Minutes)
	assert.InDelta(t, 20+3.21868, b.Totals.DistanceKm, 1e-9)
	assert.Equal(t, 7500.0, b.Totals.Steps)
	assert.Equal(t, 900.0, b.Totals.Calories)
	assert.Zero(t, counter.count)
}

func TestAndroidAdapter_MergedSessionsCountMeasuresOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	ride := func(meters float64) health.RawRecord {
		rec := androidSession("ride-1", "2024-05-11T08:00:00", "2024-05-11T09:00:00")
		rec["distance"] = map[string]any{"value": meters, "unit": "meter"}
		rec["energy"] = map[string]any{"value": 400}
		rec["steps"] = 3000
		return rec
	}

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return([]health.RawRecord{
		ride(20000),
		ride(20000),
		// a later export of the same ride with a corrected distance
		ride(25000),
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return(nil, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricActiveCalories, start, end).Return(nil, nil)

	params, _, _ := newParams(provider)
	require.NoError(t, ingest.NewAndroidAdapter(params).Populate(context.Background(), buckets, start, end))

	b := bucketOf(t, buckets, 11)
	require.Len(t, b.Workouts, 1)
	assert.Equal(t, 60.0, b.Workouts[0].DurationMinutes)
	assert.Equal(t, 25.0, b.Workouts[0].DistanceKm)
	assert.Equal(t, 3000.0, b.Workouts[0].Steps)
	assert.Equal(t, 400.0, b.Workouts[0].Calories)

	assert.Equal(t, 60.0, b.Totals.Minutes)
	assert.Equal(t, 25.0, b.Totals.DistanceKm)
	// no daily rows, steps and calories fall back to the merged session
	assert.Equal(t, 3000.0, b.Totals.Steps)
	assert.Equal(t, 400.0, b.Totals.Calories)
}

func TestAndroidAdapter_UnpagedProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessions(gomock.Any(), start, end).Return([]health.RawRecord{
		androidSession("a", "2024-05-09T06:00:00", "2024-05-09T06:40:00"),
		{"endTime": "2024-05-09T07:00:00"},
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricSteps, start, end).Return([]health.RawRecord{
		{"count": 10},
	}, nil)
	provider.EXPECT().QueryDailyAggregate(gomock.Any(), health.DailyMetricActiveCalories, start, end).Return(nil, nil)

	params, counter, _ := newParams(provider)
	require.NoError(t, ingest.NewAndroidAdapter(params).Populate(context.Background(), buckets, start, end))

	b := bucketOf(t, buckets, 9)
	assert.Equal(t, 40.0, b.Totals.Minutes)
	require.Len(t, b.Workouts, 1)
	assert.Zero(t, b.Workouts[0].AverageHeartRate, "no heart rate in the bucket to backfill from")
	assert.Equal(t, 2, counter.count)
	assert.Equal(t, []health.Platform{health.PlatformAndroidLike, health.PlatformAndroidLike}, counter.platforms)
}

func TestAndroidAdapter_PageFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPagedProvider(ctrl)
	buckets, start, end := weekBuckets()
	pageErr := errors.New("health connect rate limited")

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(nil)
	provider.EXPECT().QueryWorkoutSessionsPage(gomock.Any(), start, end, "", ingest.AndroidPageSize).
		Return(health.SessionPage{Records: []health.RawRecord{androidSession("x", "2024-05-09T06:00:00", "2024-05-09T06:40:00")}, NextPageToken: "next"}, nil)
	provider.EXPECT().QueryWorkoutSessionsPage(gomock.Any(), start, end, "next", ingest.AndroidPageSize).
		Return(health.SessionPage{}, pageErr)

	params, _, _ := newParams(provider)
	err := ingest.NewAndroidAdapter(params).Populate(context.Background(), buckets, start, end)
	require.ErrorIs(t, err, pageErr)

	var qErr *health.QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "workout sessions", qErr.Query)
	for _, b := range buckets {
		assert.Empty(t, b.Workouts)
	}
}

func TestAndroidAdapter_ProviderUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := healthmock.NewMockPlatformHealthProvider(ctrl)
	buckets, start, end := weekBuckets()

	provider.EXPECT().RequestPermissions(gomock.Any(), gomock.Any()).Return(health.ErrProviderUnavailable)

	params, _, _ := newParams(provider)
	err := ingest.NewAndroidAdapter(params).Populate(context.Background(), buckets, start, end)
	assert.ErrorIs(t, err, health.ErrProviderUnavailable)
	assert.Equal(t, cardio.BucketTotals{}, bucketOf(t, buckets, 9).Totals)
}

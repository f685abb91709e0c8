package healthsource_test

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/cardio/ingest"
	"github.com/2beens/cardioprogress/internal/healthsource"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLoc = time.FixedZone("CEST", 2*60*60)
	testNow = time.Date(2024, time.May, 15, 18, 0, 0, 0, testLoc)
)

func TestSyntheticSource_Deterministic(t *testing.T) {
	ctx := context.Background()
	start := testNow.AddDate(0, 0, -30)

	first := healthsource.NewSyntheticSource(health.PlatformIOSLike, 42, testLoc)
	second := healthsource.NewSyntheticSource(health.PlatformIOSLike, 42, testLoc)

	a, err := first.QueryWorkoutSessions(ctx, start, testNow)
	require.NoError(t, err)
	b, err := second.QueryWorkoutSessions(ctx, start, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)

	// a narrower window sees the same records for the days it shares
	tail, err := first.QueryWorkoutSessions(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	byID := make(map[string]health.RawRecord, len(a))
	for _, rec := range a {
		byID[rec["id"].(string)] = rec
	}
	for _, rec := range tail {
		assert.Equal(t, byID[rec["id"].(string)], rec)
	}

	other := healthsource.NewSyntheticSource(health.PlatformIOSLike, 7, testLoc)
	c, err := other.QueryWorkoutSessions(ctx, start, testNow)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSyntheticSource_Paging(t *testing.T) {
	ctx := context.Background()
	start := testNow.AddDate(0, 0, -60)
	source := healthsource.NewSyntheticSource(health.PlatformAndroidLike, 3, testLoc)

	all, err := source.QueryWorkoutSessions(ctx, start, testNow)
	require.NoError(t, err)
	require.Greater(t, len(all), 5)

	var paged []health.RawRecord
	token := ""
	pages := 0
	for {
		page, err := source.QueryWorkoutSessionsPage(ctx, start, testNow, token, 5)
		require.NoError(t, err)
		paged = append(paged, page.Records...)
		pages++
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	assert.Equal(t, all, paged)
	assert.Equal(t, (len(all)+4)/5, pages)

	_, err = source.QueryWorkoutSessionsPage(ctx, start, testNow, "nope", 5)
	assert.ErrorIs(t, err, healthsource.ErrInvalidPageToken)
}

func TestSyntheticSource_Unsupported(t *testing.T) {
	source := healthsource.NewSyntheticSource(health.PlatformUnsupported, 1, testLoc)
	err := source.RequestPermissions(context.Background(), health.ReadCapabilities)
	assert.ErrorIs(t, err, health.ErrProviderUnavailable)
}

func TestSyntheticSource_IngestsWithoutMalformedRecords(t *testing.T) {
	for _, platform := range []health.Platform{health.PlatformIOSLike, health.PlatformAndroidLike} {
		t.Run(string(platform), func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			malformed := 0
			adapter, ok := ingest.Select(platform, ingest.Params{
				Provider:    healthsource.NewSyntheticSource(platform, 11, testLoc),
				Location:    testLoc,
				Logger:      logger,
				OnMalformed: func(health.Platform) { malformed++ },
			})
			require.True(t, ok)

			sets := cardio.BuildBucketSets(cardio.RangeThreeMonths, testNow)
			start, end := sets.Window()
			buckets := append(append([]cardio.Bucket{}, sets.Previous...), sets.Current...)
			require.NoError(t, adapter.Populate(context.Background(), buckets, start, end))

			assert.Zero(t, malformed)
			assert.Empty(t, hook.AllEntries())

			var steps, minutes float64
			for _, b := range buckets {
				steps += b.Totals.Steps
				minutes += b.Totals.Minutes
			}
			assert.Greater(t, steps, 0.0)
			assert.Greater(t, minutes, 0.0)
		})
	}
}

func TestSyntheticSource_SyncRequest(t *testing.T) {
	ctx := context.Background()
	start := testNow.AddDate(0, 0, -13)
	source := healthsource.NewSyntheticSource(health.PlatformIOSLike, 42, testLoc)

	req, err := source.SyncRequest(ctx, start, testNow)
	require.NoError(t, err)

	platform, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, health.PlatformIOSLike, platform)

	sessions, err := source.QueryWorkoutSessions(ctx, start, testNow)
	require.NoError(t, err)
	require.Len(t, req.Sessions, len(sessions))
	for i, session := range req.Sessions {
		assert.Equal(t, sessions[i]["id"], session.ID)
		assert.False(t, session.EndTime.Before(start))
	}

	// steps and active calories for each of the 14 days
	require.Len(t, req.Daily, 28)
	assert.Equal(t, "2024-05-02", req.Daily[0].Day)
	assert.Equal(t, health.DailyMetricActiveCalories, req.Daily[27].Metric)

	_, err = healthsource.NewSyntheticSource(health.PlatformUnsupported, 42, testLoc).SyncRequest(ctx, start, testNow)
	assert.ErrorIs(t, err, health.ErrProviderUnavailable)
}

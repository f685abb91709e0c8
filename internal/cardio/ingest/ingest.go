package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Adapter fills buckets in place with the health data of one platform.
type Adapter interface {
	Populate(ctx context.Context, buckets []cardio.Bucket, start, end time.Time) error
}

type Params struct {
	Provider health.PlatformHealthProvider
	// Location is the wall-clock zone of naive timestamps. Nil means time.Local.
	Location *time.Location
	Logger   log.FieldLogger
	// OnMalformed is called once for every skipped record.
	OnMalformed func(platform health.Platform)
}

// Select returns the adapter for the platform, false when the platform has none.
func Select(platform health.Platform, params Params) (Adapter, bool) {
	switch platform {
	case health.PlatformIOSLike:
		return NewIOSAdapter(params), true
	case health.PlatformAndroidLike:
		return NewAndroidAdapter(params), true
	default:
		return nil, false
	}
}

// session is a workout session record that passed validation.
type session struct {
	id              string
	activity        string
	start           time.Time
	end             time.Time
	durationMinutes float64
	distanceKm      float64
	calories        float64
	steps           float64
	heartRateSum    float64
	heartRateCount  int
	source          string
}

func (s session) summary() cardio.WorkoutSummary {
	w := cardio.WorkoutSummary{
		ID:              s.id,
		Activity:        s.activity,
		Start:           s.start,
		End:             s.end,
		DurationMinutes: s.durationMinutes,
		DistanceKm:      s.distanceKm,
		Calories:        s.calories,
		Steps:           s.steps,
		Source:          s.source,
	}
	if s.heartRateCount > 0 {
		w.AverageHeartRate = s.heartRateSum / float64(s.heartRateCount)
	}
	return w
}

// dailyRow is a day-level aggregate placed at local noon of its day.
type dailyRow struct {
	date  time.Time
	value float64
}

type (
	sessionNormalizer func(rec health.RawRecord, loc *time.Location) (session, error)
	dailyNormalizer   func(metric health.DailyMetric, rec health.RawRecord, loc *time.Location) (dailyRow, error)
)

// fallbacks holds session derived calories and steps that only count when
// the daily aggregates left the bucket at zero.
type fallbacks struct {
	calories float64
	steps    float64
}

// pipeline runs the three ingestion phases shared by every platform:
// sessions, then daily aggregates, then reconciliation.
type pipeline struct {
	platform    health.Platform
	spanName    string
	provider    health.PlatformHealthProvider
	loc         *time.Location
	logger      log.FieldLogger
	onMalformed func(platform health.Platform)

	normalizeSession sessionNormalizer
	normalizeDaily   dailyNormalizer

	// querySessions defaults to provider.QueryWorkoutSessions.
	querySessions func(ctx context.Context, start, end time.Time) ([]health.RawRecord, error)
	// placeSession stores the session in its bucket and returns the part of
	// it the bucket totals still lack. Defaults to appending a new workout.
	placeSession func(b *cardio.Bucket, s session) session
	// finalize runs after reconciliation, optional.
	finalize func(buckets []cardio.Bucket)
}

func newPipeline(platform health.Platform, spanName string, params Params) *pipeline {
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	p := &pipeline{
		platform:    platform,
		spanName:    spanName,
		provider:    params.Provider,
		loc:         loc,
		logger:      logger.WithField("platform", string(platform)),
		onMalformed: params.OnMalformed,
	}
	p.querySessions = p.provider.QueryWorkoutSessions
	p.placeSession = appendWorkout
	return p
}

func appendWorkout(b *cardio.Bucket, s session) session {
	b.Workouts = append(b.Workouts, s.summary())
	return s
}

func (p *pipeline) Populate(ctx context.Context, buckets []cardio.Bucket, start, end time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, p.spanName)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("start", start.Format(time.RFC3339)),
		attribute.String("end", end.Format(time.RFC3339)),
		attribute.Int("buckets", len(buckets)),
	)

	if err := p.provider.RequestPermissions(ctx, health.ReadCapabilities); err != nil {
		return fmt.Errorf("request permissions: %w", err)
	}

	pending, err := p.ingestSessions(ctx, buckets, start, end)
	if err != nil {
		return err
	}

	for _, metric := range []health.DailyMetric{health.DailyMetricSteps, health.DailyMetricActiveCalories} {
		if err := p.ingestDaily(ctx, metric, buckets, start, end); err != nil {
			return err
		}
	}

	p.reconcile(buckets, pending)
	if p.finalize != nil {
		p.finalize(buckets)
	}
	return nil
}

func (p *pipeline) ingestSessions(ctx context.Context, buckets []cardio.Bucket, start, end time.Time) ([]fallbacks, error) {
	records, err := p.querySessions(ctx, start, end)
	if err != nil {
		return nil, health.NewQueryError("workout sessions", err)
	}

	pending := make([]fallbacks, len(buckets))
	placed := 0
	for _, rec := range records {
		s, err := p.normalizeSession(rec, p.loc)
		if err != nil {
			p.skip("session", err)
			continue
		}

		idx := bucketIndex(buckets, s.end)
		if idx < 0 {
			p.logger.Tracef("session %s ended at %s, outside of the window", s.id, s.end)
			continue
		}

		b := &buckets[idx]
		added := p.placeSession(b, s)
		b.Totals.Minutes += added.durationMinutes
		b.Totals.DistanceKm += added.distanceKm
		b.Totals.HeartRateSum += added.heartRateSum
		b.Totals.HeartRateCount += added.heartRateCount
		pending[idx].calories += added.calories
		pending[idx].steps += added.steps
		placed++
	}

	p.logger.Debugf("placed %d of %d workout sessions", placed, len(records))
	return pending, nil
}

func (p *pipeline) ingestDaily(ctx context.Context, metric health.DailyMetric, buckets []cardio.Bucket, start, end time.Time) error {
	records, err := p.provider.QueryDailyAggregate(ctx, metric, start, end)
	if err != nil {
		return health.NewQueryError(string(metric), err)
	}

	for _, rec := range records {
		row, err := p.normalizeDaily(metric, rec, p.loc)
		if err != nil {
			p.skip(string(metric), err)
			continue
		}
		if row.value <= 0 {
			continue
		}

		b := cardio.FindBucket(buckets, row.date)
		if b == nil {
			continue
		}
		switch metric {
		case health.DailyMetricSteps:
			b.Totals.Steps += row.value
		case health.DailyMetricActiveCalories:
			b.Totals.Calories += row.value
		}
	}
	return nil
}

func (p *pipeline) reconcile(buckets []cardio.Bucket, pending []fallbacks) {
	for i := range buckets {
		b := &buckets[i]
		if b.Totals.Calories == 0 && pending[i].calories > 0 {
			b.Totals.Calories = pending[i].calories
		}
		if b.Totals.Steps == 0 && pending[i].steps > 0 {
			b.Totals.Steps = pending[i].steps
		}
		p.logger.Tracef("bucket %s: %+v", cardio.DateKey(b.Start), b.Totals)
	}
}

func (p *pipeline) skip(kind string, err error) {
	var malformed *health.MalformedRecordError
	if !errors.As(err, &malformed) {
		malformed = &health.MalformedRecordError{Reason: err.Error()}
	}
	p.logger.WithFields(log.Fields{
		"record": kind,
		"reason": malformed.Reason,
	}).Warn("skipping malformed health record")
	if p.onMalformed != nil {
		p.onMalformed(p.platform)
	}
}

func bucketIndex(buckets []cardio.Bucket, t time.Time) int {
	for i := range buckets {
		if buckets[i].Contains(t) {
			return i
		}
	}
	return -1
}

package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/cardio/ingest"
	"github.com/2beens/cardioprogress/internal/telemetry/metrics"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const (
	apiSnapshot       = "snapshot"
	apiSeries         = "series"
	apiKpis           = "kpis"
	apiRecentWorkouts = "recentWorkouts"
	apiBests          = "bests"
)

type NewProviderParams struct {
	Resolver health.Resolver
	Health   health.PlatformHealthProvider
	// Now defaults to time.Now.
	Now func() time.Time
	// Location sets the local calendar used for buckets. Nil means time.Local.
	Location *time.Location
	Metrics  *metrics.Manager
	Logger   log.FieldLogger
}

// Provider serves the cardio read models. Each range is ingested once and
// memoized for the lifetime of the process, or until invalidated. Concurrent
// callers of one range share a single ingestion pass.
type Provider struct {
	resolver       health.Resolver
	health         health.PlatformHealthProvider
	now            func() time.Time
	loc            *time.Location
	metricsManager *metrics.Manager
	logger         log.FieldLogger

	group singleflight.Group

	mu         sync.RWMutex
	memo       map[cardio.TimeRange]*cardio.AggregatedData
	generation uint64
}

func NewProvider(params NewProviderParams) *Provider {
	p := &Provider{
		resolver:       params.Resolver,
		health:         params.Health,
		now:            params.Now,
		loc:            params.Location,
		metricsManager: params.Metrics,
		logger:         params.Logger,
		memo:           make(map[cardio.TimeRange]*cardio.AggregatedData),
	}
	if p.resolver == nil {
		p.resolver = health.NewStaticResolver(health.PlatformUnsupported)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.metricsManager == nil {
		p.metricsManager = metrics.NewManager("cardio", "provider", prometheus.NewRegistry())
	}
	if p.logger == nil {
		p.logger = log.StandardLogger()
	}
	return p
}

func (p *Provider) localNow() time.Time {
	return p.now().In(p.loc)
}

// Snapshot never fails, an ingestion failure yields the unavailable snapshot.
func (p *Provider) Snapshot(ctx context.Context, r cardio.TimeRange) cardio.CardioProgressSnapshot {
	data, err := p.ensure(ctx, r)
	if err != nil {
		p.unavailable(apiSnapshot, r, err)
		return cardio.UnavailableSnapshot(r, p.localNow())
	}
	return cardio.SnapshotFrom(data)
}

func (p *Provider) Series(ctx context.Context, r cardio.TimeRange, focus cardio.Focus, opts cardio.SeriesOptions) cardio.CardioSeriesResponse {
	data, err := p.ensure(ctx, r)
	if err == nil && !focus.IsValid() {
		err = fmt.Errorf("unknown focus %q", focus)
	}
	if err != nil {
		p.unavailable(apiSeries, r, err)
		return cardio.UnavailableSeries(cardio.BuildBucketSets(r, p.localNow()), focus, opts)
	}
	return cardio.SeriesFrom(data, focus, opts)
}

func (p *Provider) Kpis(ctx context.Context, r cardio.TimeRange) []cardio.CardioKpi {
	data, err := p.ensure(ctx, r)
	if err != nil {
		p.unavailable(apiKpis, r, err)
		return cardio.UnavailableKpis()
	}
	return cardio.KpisFrom(data)
}

// RecentWorkouts returns at most cardio.MaxRecentWorkouts workouts that ended
// in the current window, latest first.
func (p *Provider) RecentWorkouts(ctx context.Context, r cardio.TimeRange) []cardio.WorkoutSummary {
	data, err := p.ensure(ctx, r)
	if err != nil {
		p.unavailable(apiRecentWorkouts, r, err)
		return cardio.UnavailableWorkouts()
	}
	return cardio.RecentWorkoutsFrom(data)
}

func (p *Provider) Bests(ctx context.Context, r cardio.TimeRange) []cardio.CardioBest {
	data, err := p.ensure(ctx, r)
	if err != nil {
		p.unavailable(apiBests, r, err)
		return make([]cardio.CardioBest, 0)
	}
	return cardio.BestsFrom(data)
}

// TargetLine does not depend on ingested data.
func (p *Provider) TargetLine(focus cardio.Focus) *cardio.CardioTargetLine {
	return cardio.TargetLineFor(focus)
}

// Invalidate drops the memoized data of the given ranges, or of every range
// when none is given. A fetch already in flight completes for its waiters but
// is not memoized.
func (p *Provider) Invalidate(ranges ...cardio.TimeRange) {
	if len(ranges) == 0 {
		ranges = cardio.AllRanges
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	for _, r := range ranges {
		delete(p.memo, r)
		p.group.Forget(string(r))
	}
}

// Resolved reports whether ingested data for the range is memoized.
func (p *Provider) Resolved(r cardio.TimeRange) bool {
	_, ok := p.cached(r)
	return ok
}

// ResolvedGeneration reports whether ingested data for the range is memoized,
// together with the current invalidation generation. The generation changes
// on every Invalidate.
func (p *Provider) ResolvedGeneration(r cardio.TimeRange) (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.memo[r]
	return p.generation, ok
}

func (p *Provider) cached(r cardio.TimeRange) (*cardio.AggregatedData, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.memo[r]
	return data, ok
}

func (p *Provider) unavailable(api string, r cardio.TimeRange, err error) {
	p.metricsManager.CounterUnavailable.WithLabelValues(api).Inc()
	p.logger.WithFields(log.Fields{
		"api":   api,
		"range": string(r),
	}).Errorf("cardio data unavailable: %s", err)
}

// ensure returns the memoized data of the range, ingesting it on a miss.
// The ingestion is detached from ctx so one caller giving up does not fail
// the others, a caller whose ctx ends stops waiting with ctx.Err().
func (p *Provider) ensure(ctx context.Context, r cardio.TimeRange) (_ *cardio.AggregatedData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.cardio.ensure")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("range", string(r)))

	if !r.IsValid() {
		return nil, fmt.Errorf("unknown time range %q", r)
	}
	if data, ok := p.cached(r); ok {
		span.SetAttributes(attribute.Bool("memoized", true))
		return data, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	resCh := p.group.DoChan(string(r), func() (any, error) {
		if data, ok := p.cached(r); ok {
			return data, nil
		}

		p.mu.RLock()
		generation := p.generation
		p.mu.RUnlock()

		data, err := p.fetchAggregated(fetchCtx, r)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		if p.generation == generation {
			p.memo[r] = data
		}
		p.mu.Unlock()
		return data, nil
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cardio.AggregatedData), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s data: %w", r, ctx.Err())
	}
}

func (p *Provider) fetchAggregated(ctx context.Context, r cardio.TimeRange) (_ *cardio.AggregatedData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.cardio.fetchAggregated")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	outcome := metrics.OutcomeOK
	started := time.Now()
	defer func() {
		if err != nil {
			outcome = metrics.OutcomeError
		}
		p.metricsManager.CounterCardioFetch.WithLabelValues(string(r), outcome).Inc()
		p.metricsManager.HistCardioFetchDuration.WithLabelValues(string(r)).Observe(time.Since(started).Seconds())
	}()

	data := cardio.NewAggregatedData(r, p.localNow())
	logger := p.logger.WithField("range", string(r))

	platform, err := p.resolver.Resolve(ctx)
	if err != nil {
		logger.Errorf("resolve health platform: %s", err)
		platform = health.PlatformUnsupported
	}
	if p.health == nil {
		platform = health.PlatformUnsupported
	}
	span.SetAttributes(attribute.String("platform", string(platform)))

	adapter, ok := ingest.Select(platform, ingest.Params{
		Provider: p.health,
		Location: p.loc,
		Logger:   logger,
		OnMalformed: func(platform health.Platform) {
			p.metricsManager.CounterMalformedRecords.WithLabelValues(string(platform)).Inc()
		},
	})
	if !ok {
		logger.Infof("health platform %s unsupported, skipping ingestion", platform)
		outcome = metrics.OutcomeUnsupported
		return data, nil
	}

	// the adapter fills one contiguous slice, split back afterwards
	prevCount := len(data.Previous)
	buckets := make([]cardio.Bucket, 0, prevCount+len(data.Current))
	buckets = append(buckets, data.Previous...)
	buckets = append(buckets, data.Current...)
	start, end := buckets[0].Start, buckets[len(buckets)-1].End

	if err := adapter.Populate(ctx, buckets, start, end); err != nil {
		if errors.Is(err, health.ErrProviderUnavailable) {
			logger.Warnf("health provider unavailable, skipping ingestion: %s", err)
			outcome = metrics.OutcomeUnsupported
			return data, nil
		}
		return nil, fmt.Errorf("populate %s: %w", r, err)
	}

	data.Previous = buckets[:prevCount:prevCount]
	data.Current = buckets[prevCount:]
	logger.Debugf("cardio data for %s ingested from %s", r, platform)
	return data, nil
}

package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2beens/cardioprogress/internal/cache"
	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/middleware"
	"github.com/2beens/cardioprogress/internal/telemetry/metrics"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"
	"github.com/2beens/cardioprogress/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type cardioProvider interface {
	Snapshot(ctx context.Context, r cardio.TimeRange) cardio.CardioProgressSnapshot
	Series(ctx context.Context, r cardio.TimeRange, focus cardio.Focus, opts cardio.SeriesOptions) cardio.CardioSeriesResponse
	Kpis(ctx context.Context, r cardio.TimeRange) []cardio.CardioKpi
	RecentWorkouts(ctx context.Context, r cardio.TimeRange) []cardio.WorkoutSummary
	Bests(ctx context.Context, r cardio.TimeRange) []cardio.CardioBest
	TargetLine(focus cardio.Focus) *cardio.CardioTargetLine
	Invalidate(ranges ...cardio.TimeRange)
	ResolvedGeneration(r cardio.TimeRange) (uint64, bool)
}

type RefreshResponse struct {
	Invalidated []cardio.TimeRange `json:"invalidated"`
}

type Handler struct {
	provider       cardioProvider
	responseCache  cache.Cache
	metricsManager *metrics.Manager
}

func NewHandler(provider cardioProvider, responseCache cache.Cache, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		provider:       provider,
		responseCache:  responseCache,
		metricsManager: metricsManager,
	}
}

// SetupRoutes mounts the read endpoints and the refresh endpoint on the router.
// The refresh endpoint is rate limited when a limiter is given.
func (handler *Handler) SetupRoutes(router *mux.Router, rateLimiter middleware.RequestRateLimiter, refreshAllowedPerMin int) {
	var refreshHandler http.Handler = http.HandlerFunc(handler.HandleRefresh)
	if rateLimiter != nil {
		refreshHandler = middleware.RateLimit(rateLimiter, handler.metricsManager, "cardio-refresh", refreshAllowedPerMin)(refreshHandler)
	}
	router.Handle("/refresh", refreshHandler).Methods("POST", "OPTIONS").Name("cardio-refresh")
	router.HandleFunc("/{range}/snapshot", handler.HandleSnapshot).Methods("GET").Name("cardio-snapshot")
	router.HandleFunc("/{range}/series/{focus}", handler.HandleSeries).Methods("GET").Name("cardio-series")
	router.HandleFunc("/{range}/kpis", handler.HandleKpis).Methods("GET").Name("cardio-kpis")
	router.HandleFunc("/{range}/workouts/recent", handler.HandleRecentWorkouts).Methods("GET").Name("cardio-recent-workouts")
	router.HandleFunc("/{range}/bests", handler.HandleBests).Methods("GET").Name("cardio-bests")
	router.HandleFunc("/{range}/target/{focus}", handler.HandleTarget).Methods("GET").Name("cardio-target")
	router.HandleFunc("/{range}/chart/{focus}", handler.HandleChart).Methods("GET").Name("cardio-chart")
}

func (handler *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.snapshot")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}

	handler.writeCached(w, "snapshot:"+string(timeRange), timeRange, func() any {
		return handler.provider.Snapshot(ctx, timeRange)
	})
}

func (handler *Handler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.series")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}
	focus, ok := focusFromRequest(w, r)
	if !ok {
		return
	}

	var opts cardio.SeriesOptions
	if compareParam := r.URL.Query().Get("compare"); compareParam != "" {
		compare, err := strconv.ParseBool(compareParam)
		if err != nil {
			http.Error(w, "error, compare must be true or false", http.StatusBadRequest)
			return
		}
		opts.Compare = &compare
	}

	writeJSON(w, handler.provider.Series(ctx, timeRange, focus, opts))
}

func (handler *Handler) HandleKpis(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.kpis")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}

	handler.writeCached(w, "kpis:"+string(timeRange), timeRange, func() any {
		return handler.provider.Kpis(ctx, timeRange)
	})
}

func (handler *Handler) HandleRecentWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.recentWorkouts")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, handler.provider.RecentWorkouts(ctx, timeRange))
}

func (handler *Handler) HandleBests(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.bests")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, handler.provider.Bests(ctx, timeRange))
}

func (handler *Handler) HandleTarget(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.target")
	defer span.End()

	if _, ok := rangeFromRequest(w, r); !ok {
		return
	}
	focus, ok := focusFromRequest(w, r)
	if !ok {
		return
	}

	target := handler.provider.TargetLine(focus)
	if target == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, target)
}

func (handler *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.chart")
	defer span.End()

	timeRange, ok := rangeFromRequest(w, r)
	if !ok {
		return
	}
	focus, ok := focusFromRequest(w, r)
	if !ok {
		return
	}

	series := handler.provider.Series(ctx, timeRange, focus, cardio.SeriesOptions{})
	var buf bytes.Buffer
	if err := renderChart(&buf, timeRange, series, handler.provider.TargetLine(focus)); err != nil {
		log.Errorf("render %s %s chart: %s", timeRange, focus, err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.HTML, buf.Bytes())
}

// HandleRefresh drops memoized data so the next read ingests again. An
// optional range query param limits the refresh to that range.
func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.cardio.refresh")
	defer span.End()

	ranges := cardio.AllRanges
	if rangeParam := r.URL.Query().Get("range"); rangeParam != "" {
		timeRange, err := cardio.ParseTimeRange(rangeParam)
		if err != nil {
			http.Error(w, "error, unknown range", http.StatusBadRequest)
			return
		}
		ranges = []cardio.TimeRange{timeRange}
	}

	handler.provider.Invalidate(ranges...)
	handler.responseCache.Clear()
	log.Debugf("cardio data refreshed for %v", ranges)

	writeJSON(w, RefreshResponse{Invalidated: ranges})
}

// writeCached serves the encoded response from the cache when present. A
// response is only cached when it was built from ingested data, never from
// the unavailable fallback, and no refresh happened while it was built.
func (handler *Handler) writeCached(w http.ResponseWriter, key string, timeRange cardio.TimeRange, produce func() any) {
	if cached, ok := handler.responseCache.Get(key); ok {
		handler.metricsManager.CounterResponseCache.WithLabelValues(metrics.CacheHit).Inc()
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}
	handler.metricsManager.CounterResponseCache.WithLabelValues(metrics.CacheMiss).Inc()

	generationBefore, resolvedBefore := handler.provider.ResolvedGeneration(timeRange)
	respJson, err := json.Marshal(produce())
	if err != nil {
		log.Errorf("marshal %s response: %s", key, err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	generationAfter, resolvedAfter := handler.provider.ResolvedGeneration(timeRange)
	if resolvedBefore && resolvedAfter && generationBefore == generationAfter {
		if err := handler.responseCache.Set(key, respJson); err != nil {
			log.Warnf("cache %s response: %s", key, err)
		}
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func writeJSON(w http.ResponseWriter, v any) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func rangeFromRequest(w http.ResponseWriter, r *http.Request) (cardio.TimeRange, bool) {
	timeRange, err := cardio.ParseTimeRange(mux.Vars(r)["range"])
	if err != nil {
		http.Error(w, "error, unknown range", http.StatusBadRequest)
		return "", false
	}
	return timeRange, true
}

func focusFromRequest(w http.ResponseWriter, r *http.Request) (cardio.Focus, bool) {
	focus, err := cardio.ParseFocus(mux.Vars(r)["focus"])
	if err != nil {
		http.Error(w, "error, unknown focus", http.StatusBadRequest)
		return "", false
	}
	return focus, true
}

package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/cardioprogress/internal/cache"
	"github.com/2beens/cardioprogress/internal/cardio/health"
	cardiomcp "github.com/2beens/cardioprogress/internal/cardio/mcp"
	"github.com/2beens/cardioprogress/internal/cardio/progress"
	"github.com/2beens/cardioprogress/internal/config"
	"github.com/2beens/cardioprogress/internal/db"
	"github.com/2beens/cardioprogress/internal/healthsource"
	"github.com/2beens/cardioprogress/internal/middleware"
	"github.com/2beens/cardioprogress/internal/telemetry/metrics"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"
	"github.com/2beens/cardioprogress/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	appSecretHash     string // bcrypt hash of the secret mutating requests carry
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool // nil unless health data lives in postgres

	redisClient      *redis.Client
	platformResolver *health.OnceResolver
	platformStore    *health.RedisResolver
	psqlSource       *healthsource.PsqlSource

	provider      *progress.Provider
	responseCache *cache.ResponseCache

	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	AppSecretHash           string
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var dbPool *pgxpool.Pool
	var collectors []prometheus.Collector
	if cfg.HealthSource == config.HealthSourcePostgres {
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("cardio", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "cardio-progress", rdb)
	if err != nil {
		return nil, err
	}

	platformStore := health.NewRedisResolver(rdb)
	platformResolver := newPlatformResolver(cfg, platformStore)

	s := &Server{
		config:        cfg,
		dbPool:        dbPool,
		appSecretHash: params.AppSecretHash,
		versionInfo:   params.VersionInfo,

		redisClient:      rdb,
		platformResolver: platformResolver,
		platformStore:    platformStore,

		responseCache: cache.NewResponseCache(cfg.ResponseCacheSizeMB, cfg.ResponseCacheTTLSeconds),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	healthProvider, err := healthsource.FromConfig(cfg, dbPool, platformResolver, location)
	if err != nil {
		return nil, fmt.Errorf("health source: %w", err)
	}
	// sync is served only when the health data lives in postgres
	s.psqlSource, _ = healthProvider.(*healthsource.PsqlSource)
	log.Debugf("using health source: %s", cfg.HealthSource)

	s.provider = progress.NewProvider(progress.NewProviderParams{
		Resolver: platformResolver,
		Health:   healthProvider,
		Location: location,
		Metrics:  metricsManager,
		Logger:   log.StandardLogger(),
	})

	return s, nil
}

// newPlatformResolver reads the platform from redis when configured so, and
// from the config value otherwise. Either way it is resolved once until reset.
func newPlatformResolver(cfg *config.Config, platformStore health.Resolver) *health.OnceResolver {
	if cfg.Platform == config.PlatformFromRedis {
		return health.NewOnceResolver(platformStore)
	}
	return health.NewOnceResolver(health.NewStaticResolver(health.ParsePlatform(cfg.Platform)))
}

// afterSync drops everything derived from the previous health data.
func (s *Server) afterSync() {
	s.platformResolver.Reset()
	s.provider.Invalidate()
	s.responseCache.Clear()
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("cardio-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	progressHandler := progress.NewHandler(s.provider, s.responseCache, s.metricsManager)
	progressHandler.SetupRoutes(
		r.PathPrefix("/cardio").Subrouter(),
		reqRateLimiter,
		s.config.RateLimitPerMin,
	)

	if s.psqlSource != nil {
		syncHandler := healthsource.NewSyncHandler(s.psqlSource, s.platformStore, s.afterSync)
		r.Handle(
			"/health/sync",
			middleware.RateLimit(reqRateLimiter, s.metricsManager, "health-sync", s.config.RateLimitPerMin)(
				http.HandlerFunc(syncHandler.HandleSync),
			),
		).Methods("POST", "OPTIONS").Name("health-sync")
	}

	mcpServer := cardiomcp.NewServer(s.provider)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	r.Handle("/mcp", otelhttp.NewHandler(mcpHandler, "mcp")).Methods("GET", "POST", "DELETE", "OPTIONS").Name("mcp")

	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.appSecretHash)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	version := s.versionInfo
	if version == "" {
		version = "unknown"
	}
	pkg.WriteTextResponseOK(w, version)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.MetricsHost, s.config.MetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

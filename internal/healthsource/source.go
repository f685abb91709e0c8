package healthsource

import (
	"errors"
	"fmt"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// FromConfig picks the health source named by cfg.HealthSource. The db pool
// is only used, and required, by the postgres source.
func FromConfig(cfg *config.Config, dbPool *pgxpool.Pool, resolver health.Resolver, location *time.Location) (health.PlatformHealthProvider, error) {
	switch cfg.HealthSource {
	case config.HealthSourcePostgres:
		if dbPool == nil {
			return nil, errors.New("postgres health source needs a db pool")
		}
		return NewPsqlSource(dbPool, resolver), nil
	case config.HealthSourceFit:
		return NewFitSource(cfg.FitDir, log.StandardLogger()), nil
	case config.HealthSourceSynthetic:
		return NewSyntheticSource(health.ParsePlatform(cfg.Platform), cfg.SyntheticSeed, location), nil
	default:
		return nil, fmt.Errorf("unknown health source: %s", cfg.HealthSource)
	}
}

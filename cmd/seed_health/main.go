// Package main fills the postgres health store with synthetic data.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/config"
	"github.com/2beens/cardioprogress/internal/db"
	"github.com/2beens/cardioprogress/internal/healthsource"
	"github.com/2beens/cardioprogress/tools"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	platform := flag.String("platform", "ios", "platform dialect of the generated data [ios | android]")
	days := flag.Int("days", 200, "number of days to generate, ending now")
	seed := flag.Int64("seed", 42, "generator seed")
	initSchema := flag.Bool("init-schema", false, "create the health tables first")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	location, err := cfg.Location()
	if err != nil {
		log.Fatalf("location: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	if *initSchema {
		if _, err := dbPool.Exec(ctx, healthsource.Schema); err != nil {
			log.Fatalf("init schema: %s", err)
		}
	}

	sourcePlatform := health.ParsePlatform(*platform)
	store := healthsource.NewPsqlSource(dbPool, health.NewStaticResolver(sourcePlatform))
	source := healthsource.NewSyntheticSource(sourcePlatform, *seed, location)

	result, err := tools.SeedHealthData(ctx, store, source, *days, time.Now())
	if err != nil {
		log.Fatalf("seed health data: %s", err)
	}
	log.Infof("seeded %s: %d sessions, %d daily rows", result.Platform, result.Sessions, result.Daily)

	// the service reads the platform from redis when configured with platform = "redis"
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("CARDIO_REDIS_PASS"),
	})
	defer rdb.Close()
	if err := health.NewRedisResolver(rdb).Store(ctx, result.Platform); err != nil {
		log.Warnf("store platform in redis: %s", err)
	}
}

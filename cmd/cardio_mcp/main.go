// Package main runs the cardio progress MCP server over stdio for local MCP
// clients. The backend mounts the same server at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	cardiomcp "github.com/2beens/cardioprogress/internal/cardio/mcp"
	"github.com/2beens/cardioprogress/internal/cardio/progress"
	"github.com/2beens/cardioprogress/internal/config"
	"github.com/2beens/cardioprogress/internal/db"
	"github.com/2beens/cardioprogress/internal/healthsource"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	location, err := cfg.Location()
	if err != nil {
		log.Fatalf("location: %v", err)
	}

	ctx := context.Background()

	var resolver health.Resolver = health.NewStaticResolver(health.ParsePlatform(cfg.Platform))
	if cfg.Platform == config.PlatformFromRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("CARDIO_REDIS_PASS"),
		})
		defer rdb.Close()
		resolver = health.NewRedisResolver(rdb)
	}
	resolver = health.NewOnceResolver(resolver)

	var dbPool *pgxpool.Pool
	if cfg.HealthSource == config.HealthSourcePostgres {
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: false,
		})
		if err != nil {
			log.Fatalf("db pool: %v", err)
		}
		defer dbPool.Close()
	}

	healthProvider, err := healthsource.FromConfig(cfg, dbPool, resolver, location)
	if err != nil {
		log.Fatalf("health source: %v", err)
	}

	provider := progress.NewProvider(progress.NewProviderParams{
		Resolver: resolver,
		Health:   healthProvider,
		Location: location,
	})
	server := cardiomcp.NewServer(provider)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}

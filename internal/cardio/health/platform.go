package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Platform identifies which health data dialect the device speaks.
type Platform string

const (
	PlatformIOSLike     Platform = "iosLike"
	PlatformAndroidLike Platform = "androidLike"
	PlatformUnsupported Platform = "unsupported"
)

const platformRedisKey = "cardio:platform"

func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ios", "ioslike", "healthkit":
		return PlatformIOSLike
	case "android", "androidlike", "healthconnect":
		return PlatformAndroidLike
	default:
		return PlatformUnsupported
	}
}

//go:generate mockgen -source=$GOFILE -destination=healthmock/platform_mock.go -package=healthmock

type Resolver interface {
	Resolve(ctx context.Context) (Platform, error)
}

type StaticResolver struct {
	platform Platform
}

func NewStaticResolver(platform Platform) *StaticResolver {
	return &StaticResolver{platform: platform}
}

func (r *StaticResolver) Resolve(_ context.Context) (Platform, error) {
	return r.platform, nil
}

// RedisResolver reads the platform the last health sync reported.
type RedisResolver struct {
	redisClient *redis.Client
}

func NewRedisResolver(redisClient *redis.Client) *RedisResolver {
	return &RedisResolver{redisClient: redisClient}
}

func (r *RedisResolver) Resolve(ctx context.Context) (Platform, error) {
	val, err := r.redisClient.Get(ctx, platformRedisKey).Result()
	if errors.Is(err, redis.Nil) {
		return PlatformUnsupported, nil
	}
	if err != nil {
		return PlatformUnsupported, fmt.Errorf("get platform: %w", err)
	}
	return ParsePlatform(val), nil
}

// Store records the platform a health sync came from.
func (r *RedisResolver) Store(ctx context.Context, platform Platform) error {
	if err := r.redisClient.Set(ctx, platformRedisKey, string(platform), 0).Err(); err != nil {
		return fmt.Errorf("set platform: %w", err)
	}
	return nil
}

// OnceResolver resolves the platform a single time per process, or until
// Reset is called after a sync reported a platform.
// A failed resolution is remembered as unsupported.
type OnceResolver struct {
	resolver Resolver

	mu       sync.Mutex
	resolved bool
	platform Platform
}

func NewOnceResolver(resolver Resolver) *OnceResolver {
	return &OnceResolver{resolver: resolver}
}

func (r *OnceResolver) Resolve(ctx context.Context) (Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.resolved {
		platform, err := r.resolver.Resolve(ctx)
		if err != nil {
			log.Errorf("resolve health platform: %s", err)
			platform = PlatformUnsupported
		}
		r.platform = platform
		r.resolved = true
	}
	return r.platform, nil
}

// Reset makes the next Resolve ask the wrapped resolver again.
func (r *OnceResolver) Reset() {
	r.mu.Lock()
	r.resolved = false
	r.mu.Unlock()
}

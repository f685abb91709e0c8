//go:build integration_test || all_tests

package health_test

import (
	"testing"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	testingpkg "github.com/2beens/cardioprogress/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisResolver_StoreThenResolve(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)
	t.Cleanup(func() {
		rdb.Del(ctx, "cardio:platform")
	})

	resolver := health.NewRedisResolver(rdb)
	require.NoError(t, resolver.Store(ctx, health.PlatformAndroidLike))

	once := health.NewOnceResolver(resolver)
	platform, err := once.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, health.PlatformAndroidLike, platform)

	require.NoError(t, resolver.Store(ctx, health.PlatformIOSLike))
	platform, err = once.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, health.PlatformAndroidLike, platform)

	once.Reset()
	platform, err = once.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, health.PlatformIOSLike, platform)
}

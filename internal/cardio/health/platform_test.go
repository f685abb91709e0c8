package health_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/cardio/health/healthmock"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, health.PlatformIOSLike, health.ParsePlatform("iOS"))
	assert.Equal(t, health.PlatformIOSLike, health.ParsePlatform("iosLike"))
	assert.Equal(t, health.PlatformAndroidLike, health.ParsePlatform(" android "))
	assert.Equal(t, health.PlatformAndroidLike, health.ParsePlatform("healthconnect"))
	assert.Equal(t, health.PlatformUnsupported, health.ParsePlatform("web"))
	assert.Equal(t, health.PlatformUnsupported, health.ParsePlatform(""))
}

func TestRedisResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	resolver := health.NewRedisResolver(db)

	mock.ExpectGet("cardio:platform").SetVal("androidLike")
	platform, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, health.PlatformAndroidLike, platform)

	mock.ExpectGet("cardio:platform").RedisNil()
	platform, err = resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, health.PlatformUnsupported, platform)

	mock.ExpectGet("cardio:platform").SetErr(errors.New("connection refused"))
	platform, err = resolver.Resolve(ctx)
	require.Error(t, err)
	assert.Equal(t, health.PlatformUnsupported, platform)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisResolver_Store(t *testing.T) {
	db, mock := redismock.NewClientMock()
	resolver := health.NewRedisResolver(db)

	mock.ExpectSet("cardio:platform", "iosLike", 0).SetVal("OK")
	require.NoError(t, resolver.Store(context.Background(), health.PlatformIOSLike))

	mock.ExpectSet("cardio:platform", "iosLike", 0).SetErr(errors.New("read only replica"))
	require.Error(t, resolver.Store(context.Background(), health.PlatformIOSLike))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnceResolver_ResolvesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := healthmock.NewMockResolver(ctrl)
	inner.EXPECT().Resolve(gomock.Any()).Return(health.PlatformIOSLike, nil).Times(1)

	resolver := health.NewOnceResolver(inner)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			platform, err := resolver.Resolve(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, health.PlatformIOSLike, platform)
		}()
	}
	wg.Wait()
}

func TestOnceResolver_ErrorIsUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := healthmock.NewMockResolver(ctrl)
	inner.EXPECT().Resolve(gomock.Any()).Return(health.Platform(""), errors.New("boom")).Times(1)

	resolver := health.NewOnceResolver(inner)
	for i := 0; i < 3; i++ {
		platform, err := resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, health.PlatformUnsupported, platform)
	}
}

func TestOnceResolver_Reset(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := healthmock.NewMockResolver(ctrl)
	gomock.InOrder(
		inner.EXPECT().Resolve(gomock.Any()).Return(health.PlatformUnsupported, nil),
		inner.EXPECT().Resolve(gomock.Any()).Return(health.PlatformAndroidLike, nil),
	)

	resolver := health.NewOnceResolver(inner)
	platform, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, health.PlatformUnsupported, platform)

	resolver.Reset()
	for i := 0; i < 2; i++ {
		platform, err = resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, health.PlatformAndroidLike, platform)
	}
}

func TestQueryError(t *testing.T) {
	err := health.NewQueryError("sessions", health.ErrProviderUnavailable)
	assert.ErrorIs(t, err, health.ErrProviderUnavailable)
	assert.Equal(t, "query sessions: health provider unavailable", err.Error())

	var malformed *health.MalformedRecordError
	wrapped := errors.Join(errors.New("other"), health.NewMalformedRecordError("missing %s", "endDate"))
	require.ErrorAs(t, wrapped, &malformed)
	assert.Equal(t, "missing endDate", malformed.Reason)
}

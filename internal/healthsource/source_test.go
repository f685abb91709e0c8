package healthsource_test

import (
	"testing"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/config"
	"github.com/2beens/cardioprogress/internal/healthsource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	resolver := health.NewStaticResolver(health.PlatformIOSLike)

	source, err := healthsource.FromConfig(&config.Config{HealthSource: config.HealthSourceSynthetic, Platform: "ios"}, nil, resolver, time.UTC)
	require.NoError(t, err)
	assert.IsType(t, &healthsource.SyntheticSource{}, source)

	source, err = healthsource.FromConfig(&config.Config{HealthSource: config.HealthSourceFit, FitDir: t.TempDir()}, nil, resolver, time.UTC)
	require.NoError(t, err)
	assert.IsType(t, &healthsource.FitSource{}, source)

	_, err = healthsource.FromConfig(&config.Config{HealthSource: config.HealthSourcePostgres}, nil, resolver, time.UTC)
	require.Error(t, err)

	_, err = healthsource.FromConfig(&config.Config{HealthSource: "csv"}, nil, resolver, time.UTC)
	require.Error(t, err)
}

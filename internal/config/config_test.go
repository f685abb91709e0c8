package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RepoConfig(t *testing.T) {
	for _, env := range []string{"dev", "development", "prod", "production"} {
		cfg, err := Load(env, "../../config.toml")
		require.NoError(t, err, env)
		assert.Equal(t, 9000, cfg.Port)
	}

	cfg, err := Load("development", "../../config.toml")
	require.NoError(t, err)
	assert.Equal(t, HealthSourceSynthetic, cfg.HealthSource)
	assert.Equal(t, int64(42), cfg.SyntheticSeed)

	cfg, err = Load("production", "../../config.toml")
	require.NoError(t, err)
	assert.Equal(t, PlatformFromRedis, cfg.Platform)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Belgrade", loc.String())

	_, err = Load("staging", "../../config.toml")
	assert.EqualError(t, err, "unknown env: staging")
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[development]
port = 9000
health_source = "fit"
`), 0o644))

	_, err := Load("dev", path)
	assert.ErrorContains(t, err, "needs fit_dir")

	_, err = Load("prod", path)
	assert.ErrorContains(t, err, "no prod section")

	_, err = Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Local", loc.String())

	cfg.Timezone = "Mars/Olympus_Mons"
	_, err = cfg.Location()
	assert.Error(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOSTREAMS_URL", "https://geostreams.example.org")
	t.Setenv("GEOSTREAMS_KEY", "geo-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://geostreams.example.org", cfg.Geostreams.URL)
	assert.Equal(t, "geo-key", cfg.Geostreams.Key.Unmask())
	assert.Equal(t, 30*time.Second, cfg.Geostreams.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Traits.Timeout)
	assert.Empty(t, cfg.Loader.PlotName)
}

func TestLoad_EnforcesUTC(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, time.Local)
}

func TestLoad_LoaderOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLOT_NAME", "Range 4 Pass 9")
	t.Setenv("DEFAULT_GEOMETRY", `{"type": "Point", "coordinates": [-111.97, 33.07, 0]}`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Range 4 Pass 9", cfg.Loader.PlotName)
	assert.NotEmpty(t, cfg.Loader.DefaultGeometry)
}

func TestLoad_InvalidURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BETYDB_URL", "not-a-url")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "validate", cfgErr.Stage)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production-ish")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidDefaultGeometry(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_GEOMETRY", "{not json")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEOSTREAMS_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "envconfig", cfgErr.Stage)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "data/combined_data.csv", cfg.Data.Source)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DASHBOARD_PORT", "9090")
	t.Setenv("DASHBOARD_DATA_SOURCE", "/srv/games.csv.gz")
	t.Setenv("DASHBOARD_LOG_FORMAT", "console")
	t.Setenv("DASHBOARD_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/games.csv.gz", cfg.Data.Source)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DASHBOARD_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_LOG_LEVEL") })

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "DASHBOARD_PORT", "70000"},
		{"port not a number", "DASHBOARD_PORT", "http"},
		{"unknown log format", "DASHBOARD_LOG_FORMAT", "xml"},
		{"zero shutdown timeout", "DASHBOARD_SHUTDOWN_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadReportsEveryInvalidValue(t *testing.T) {
	t.Setenv("DASHBOARD_PORT", "70000")
	t.Setenv("DASHBOARD_LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "DASHBOARD_PORT")
	assert.Contains(t, errs[1].Error(), "DASHBOARD_LOG_FORMAT")
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewfead/cip/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func Test_Unit_LoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://www.cip-paris.fr", cfg.RootURL)
	assert.Equal(t, config.DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 2, cfg.UTCOffsetHours)
	assert.Equal(t, "04:00", cfg.DayStart)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, config.DefaultDBPath(), cfg.DB.DSN)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func Test_Unit_LoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
root_url: http://localhost:8080
concurrency: 4
day_start: "05:30"
db:
  driver: postgres
  dsn: postgres://cip@localhost/cip
`), 0o644))
	t.Setenv("CIP_UTC_OFFSET_HOURS", "1")
	t.Setenv("CIP_DB_DSN", "postgres://cip@db/cip")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.RootURL)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 1, cfg.UTCOffsetHours)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://cip@db/cip", cfg.DB.DSN)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	cal, err := cfg.Calendar(now)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour+30*time.Minute, cal.DayStart)
	_, offset := cal.Now.Zone()
	assert.Equal(t, 3600, offset)
	assert.True(t, now.Equal(cal.Now))
}

func Test_Unit_CalendarRejectsBadDayStart(t *testing.T) {
	cfg := &config.Config{DayStart: "4h"}
	_, err := cfg.Calendar(time.Now())
	assert.Error(t, err)

	cfg = &config.Config{RequestTimeout: "soon"}
	_, err = cfg.Timeout()
	assert.Error(t, err)
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, "bidsweep", cfg.SurrealDBNamespace)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 5, cfg.RegionWorkers)
	assert.Equal(t, 6, cfg.ScheduleHour)
	assert.Equal(t, 0, cfg.ScheduleMinute)
	assert.Equal(t, ":8585", cfg.ServerAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SURREALDB_URL", "ws://db.internal:8000/rpc")
	t.Setenv("BIDSWEEP_REQUEST_DELAY", "500ms")
	t.Setenv("BIDSWEEP_REGION_WORKERS", "12")
	t.Setenv("BIDSWEEP_SCHEDULE_HOUR", "3")
	t.Setenv("BIDSWEEP_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "ws://db.internal:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 12, cfg.RegionWorkers)
	assert.Equal(t, 3, cfg.ScheduleHour)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("BIDSWEEP_REGION_WORKERS", "many")
	t.Setenv("BIDSWEEP_REQUEST_DELAY", "soon")
	t.Setenv("BIDSWEEP_LOG_LEVEL", "chatty")

	cfg := Load()
	assert.Equal(t, 5, cfg.RegionWorkers)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Fetch behavior
	RequestTimeout time.Duration
	RequestDelay   time.Duration
	UserAgent      string

	// Multi-region adapter
	RegionWorkers int

	// Daily batch schedule (local time)
	ScheduleHour   int
	ScheduleMinute int

	// Source table overrides (empty = embedded defaults)
	RegionsFile     string
	LocalBoardsFile string

	// Admin API
	ServerAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "bidsweep"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "contracts"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		RequestTimeout: getEnvDuration("BIDSWEEP_REQUEST_TIMEOUT", 30*time.Second),
		RequestDelay:   getEnvDuration("BIDSWEEP_REQUEST_DELAY", 2*time.Second),
		UserAgent:      getEnv("BIDSWEEP_USER_AGENT", "bidsweep/1.0 (procurement research)"),

		RegionWorkers: getEnvInt("BIDSWEEP_REGION_WORKERS", 5),

		ScheduleHour:   getEnvInt("BIDSWEEP_SCHEDULE_HOUR", 6),
		ScheduleMinute: getEnvInt("BIDSWEEP_SCHEDULE_MINUTE", 0),

		RegionsFile:     getEnv("BIDSWEEP_REGIONS_FILE", ""),
		LocalBoardsFile: getEnv("BIDSWEEP_LOCAL_BOARDS_FILE", ""),

		ServerAddr: getEnv("BIDSWEEP_SERVER_ADDR", ":8585"),

		LogFile:  getEnv("BIDSWEEP_LOG_FILE", "/tmp/bidsweep.log"),
		LogLevel: parseLogLevel(getEnv("BIDSWEEP_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

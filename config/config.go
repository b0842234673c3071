package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	apperrors "sjsage522/oddsworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Portal and browser configuration
	PortalURL       string
	ChromeAddr      string
	BrowserHeadless bool
	StepTimeout     time.Duration
	PollInterval    time.Duration
	ClickSettle     time.Duration

	// Batch pacing between two race fetches
	RequestInterval time.Duration

	// Race identifier files and command output
	RaceDataDir      string
	RaceDataEncoding string
	OutputDir        string

	// Memcache configuration, empty address disables the snapshot cache
	MemcacheAddr string
	SnapshotTTL  time.Duration

	// Redis configuration, empty address disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Cron schedule for watch mode
	WatchSchedule string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	headless, err := strconv.ParseBool(getEnv("BROWSER_HEADLESS", "true"))
	if err != nil {
		headless = true
	}

	return &Config{
		PortalURL:            getEnv("PORTAL_URL", "https://www.jra.go.jp/keiba/"),
		ChromeAddr:           getEnv("CHROME_ADDR", ""),
		BrowserHeadless:      headless,
		StepTimeout:          time.Duration(getEnvInt("STEP_TIMEOUT_SECONDS", 30)) * time.Second,
		PollInterval:         time.Duration(getEnvInt("POLL_INTERVAL_MILLIS", 250)) * time.Millisecond,
		ClickSettle:          time.Duration(getEnvInt("CLICK_SETTLE_MILLIS", 1000)) * time.Millisecond,
		RequestInterval:      time.Duration(getEnvInt("REQUEST_INTERVAL_MILLIS", 1000)) * time.Millisecond,
		RaceDataDir:          getEnv("RACE_DATA_DIR", "common/data/prediction"),
		RaceDataEncoding:     getEnv("RACE_DATA_ENCODING", "shift_jis"),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		SnapshotTTL:          time.Duration(getEnvInt("SNAPSHOT_TTL_SECONDS", 60)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "odds"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		WatchSchedule:        getEnv("WATCH_SCHEDULE", ""),
		Environment:          getEnv("ODDS_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	u, err := url.Parse(c.PortalURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.NewConfiguration(fmt.Sprintf("PORTAL_URL is not an absolute URL: %q", c.PortalURL), err)
	}
	if c.StepTimeout <= 0 {
		return apperrors.NewConfiguration("STEP_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.PollInterval <= 0 {
		return apperrors.NewConfiguration("POLL_INTERVAL_MILLIS must be positive", nil)
	}
	if c.ClickSettle < 0 || c.RequestInterval < 0 || c.SnapshotTTL < 0 {
		return apperrors.NewConfiguration("durations must not be negative", nil)
	}
	if c.RedisAddr != "" {
		if c.RedisStream == "" {
			return apperrors.NewConfiguration("REDIS_STREAM must be set when REDIS_ADDR is set", nil)
		}
		if c.RedisStreamCount < 1 {
			return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
		}
	}
	return nil
}

// IsProduction reports whether the worker runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

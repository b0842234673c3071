package config

import (
	"testing"
	"time"

	apperrors "sjsage522/oddsworker/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://www.jra.go.jp/keiba/", config.PortalURL)
	assert.Equal(t, "", config.ChromeAddr)
	assert.True(t, config.BrowserHeadless)
	assert.Equal(t, 30*time.Second, config.StepTimeout)
	assert.Equal(t, 1*time.Second, config.RequestInterval)
	assert.Equal(t, "common/data/prediction", config.RaceDataDir)
	assert.Equal(t, "shift_jis", config.RaceDataEncoding)
	assert.Equal(t, "", config.MemcacheAddr)
	assert.Equal(t, 60*time.Second, config.SnapshotTTL)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CHROME_ADDR", "ws://chrome:9222")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("STEP_TIMEOUT_SECONDS", "5")
	t.Setenv("REQUEST_INTERVAL_MILLIS", "2500")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_STREAM_COUNT", "4")
	t.Setenv("WATCH_SCHEDULE", "@every 5m")

	config = LoadConfig()
	assert.Equal(t, "ws://chrome:9222", config.ChromeAddr)
	assert.False(t, config.BrowserHeadless)
	assert.Equal(t, 5*time.Second, config.StepTimeout)
	assert.Equal(t, 2500*time.Millisecond, config.RequestInterval)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 2, config.RedisDB)
	assert.Equal(t, 4, config.RedisStreamCount)
	assert.Equal(t, "@every 5m", config.WatchSchedule)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("STEP_TIMEOUT_SECONDS", "soon")
	t.Setenv("BROWSER_HEADLESS", "maybe")

	config := LoadConfig()
	assert.Equal(t, 30*time.Second, config.StepTimeout)
	assert.True(t, config.BrowserHeadless)
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.PortalURL = "not a url"
	err := config.Validate()
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))

	config = LoadConfig()
	config.StepTimeout = 0
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.RequestInterval = -time.Second
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.RedisAddr = "localhost:6379"
	config.RedisStreamCount = 0
	assert.Error(t, config.Validate())
}

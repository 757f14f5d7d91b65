package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_ReadsRequiredAndDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "films")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "films")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")

	cfg := Load()
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.DBPool.MaxOpen)
	assert.Equal(t, 25, cfg.DBPool.MaxIdle)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfig_Burst(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "15")
	assert.Equal(t, 15, LoadRateLimitConfig().Capacity)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.True(t, cfg.InvalidateOnWrite)
	assert.Equal(t, map[string]bool{"/v1/users/:id/feed": true}, cfg.Bypass)

	t.Setenv("CACHE_BYPASS_ROUTES", "/v1/films, /v1/users")
	assert.Equal(t, map[string]bool{"/v1/films": true, "/v1/users": true}, LoadCacheConfig().Bypass)
}

func TestLoadQueueConfig_Fallbacks(t *testing.T) {
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	t.Setenv("FEED_BREAKER_FAILURES", "0")

	cfg := LoadQueueConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.URL)
	assert.Equal(t, "films.feed", cfg.Queue)
	assert.Equal(t, uint32(1), cfg.BreakerFailures)
}

func TestLoadRankingConfig(t *testing.T) {
	t.Setenv("POPULAR_DEFAULT_COUNT", "-3")
	cfg := LoadRankingConfig()
	assert.Equal(t, 10, cfg.DefaultCount)
	assert.Equal(t, 1000, cfg.MaxCount)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestRedisOptions_HostPortOverride(t *testing.T) {
	t.Setenv("REDIS_ADDR", "a:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	opts := RedisOptions()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)
}

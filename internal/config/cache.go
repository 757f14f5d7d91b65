package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware. Caching
// is off when Enabled is false or no Redis client is available. Methods
// lists the HTTP methods whose responses are cached; any successful request
// with another method flushes the Prefix namespace when InvalidateOnWrite
// is set. Routes in Bypass, given as Echo route patterns, are never cached.
type CacheConfig struct {
	Enabled           bool
	Methods           map[string]bool
	Bypass            map[string]bool
	TTL               time.Duration
	KeyStrategy       string
	Prefix            string
	MaxBodyBytes      int
	InvalidateOnWrite bool
}

// LoadCacheConfig reads CACHE_* variables. Methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range envList("CACHE_METHODS", "GET") {
		methods[strings.ToUpper(m)] = true
	}
	// The feed is written by the queue consumer outside any request, so no
	// write request would invalidate it.
	bypass := map[string]bool{}
	for _, r := range envList("CACHE_BYPASS_ROUTES", "/v1/users/:id/feed") {
		bypass[r] = true
	}
	return CacheConfig{
		Enabled:           envBool("CACHE_ENABLED", true),
		Methods:           methods,
		Bypass:            bypass,
		TTL:               envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:       envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:            envStr("CACHE_PREFIX", "films:cache"),
		MaxBodyBytes:      envInt("CACHE_MAX_BODY_BYTES", 1<<20),
		InvalidateOnWrite: envBool("CACHE_INVALIDATE_ON_WRITE", true),
	}
}

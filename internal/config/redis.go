package config

// Redis backs the rate limiter and the response cache. When the server
// cannot be reached at startup the constructor returns nil and both
// features switch themselves off.

import (
	"context"
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/film-catalog/internal/logging"
)

// RedisOptions builds client options from the environment:
//
//	REDIS_ADDR             host:port (default localhost:6379)
//	REDIS_HOST, REDIS_PORT override REDIS_ADDR when both are set
//	REDIS_PASSWORD         optional
//	REDIS_DB               database number (default 0)
//	REDIS_TLS              "true" or "1" enables TLS
func RedisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	}
}

// NewRedisClient connects with RedisOptions and pings the server. It
// returns nil when the ping fails.
func NewRedisClient() *redis.Client {
	opts := RedisOptions()
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", opts.Addr).Msg("redis unavailable; cache and rate limit disabled")
		_ = client.Close()
		return nil
	}
	return client
}

// Package config loads application configuration from environment
// variables. A .env file in the working directory is read first when
// present; variables already set in the environment win.
package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/film-catalog/internal/database"
	"github.com/iliyamo/film-catalog/internal/logging"
)

// Config holds the core runtime configuration. Each field corresponds to
// an environment variable.
type Config struct {
	Env       string // APP_ENV, e.g. "dev" or "prod"
	Port      string // APP_PORT
	DBUser    string // DB_USER
	DBPass    string // DB_PASS (may be empty)
	DBHost    string // DB_HOST
	DBPort    string // DB_PORT
	DBName    string // DB_NAME
	DBPool    database.PoolConfig
	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT: json or console
}

// LoadDotEnv reads .env into the process environment if the file exists.
// Missing files are not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		logging.Debug().Msg("loaded .env")
	}
}

// Load reads configuration values from environment variables. Required
// variables are enforced by must(); a missing value stops the process.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),
		DBPool: database.PoolConfig{
			MaxOpen:     envInt("DB_MAX_OPEN_CONNS", database.DefaultPool.MaxOpen),
			MaxIdle:     envInt("DB_MAX_IDLE_CONNS", database.DefaultPool.MaxIdle),
			MaxLifetime: envDur("DB_CONN_MAX_LIFETIME", database.DefaultPool.MaxLifetime),
		},
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),
	}
}

// must retrieves the value of a required environment variable. An unset
// or empty variable is fatal.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logging.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

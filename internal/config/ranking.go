package config

import "time"

// RankingConfig holds the request-level defaults for ranking endpoints.
type RankingConfig struct {
	DefaultCount int           // popular list size when ?count is absent
	MaxCount     int           // upper bound accepted for ?count
	QueryTimeout time.Duration // deadline applied to each ranking request
}

func LoadRankingConfig() RankingConfig {
	c := RankingConfig{
		DefaultCount: envInt("POPULAR_DEFAULT_COUNT", 10),
		MaxCount:     envInt("POPULAR_MAX_COUNT", 1000),
		QueryTimeout: envDur("RANKING_QUERY_TIMEOUT", 5*time.Second),
	}
	if c.DefaultCount < 1 {
		c.DefaultCount = 10
	}
	if c.MaxCount < c.DefaultCount {
		c.MaxCount = c.DefaultCount
	}
	return c
}

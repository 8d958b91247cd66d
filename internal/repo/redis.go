package repo

import (
	"context"

	"blackjack-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to the configured redis instance, used for short-lived
// auth state (login throttle counters).
func OpenRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return rdb, nil
}

package redisclient

import (
	"github.com/redis/go-redis/v9"

	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/config"
)

func New(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

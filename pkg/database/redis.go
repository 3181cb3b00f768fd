package database

import (
	"context"
	"fmt"
	"intervention_backend/internal/config"
	"intervention_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
)

// InitRedis 连接 Redis 并检查连通性
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}

	logger.Log.Info("Redis connection established")
	return rdb, nil
}

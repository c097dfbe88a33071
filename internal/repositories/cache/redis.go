package cache

import (
	"context"
	"fmt"

	"playarena/internal/config"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Stats exposes the client's connection pool counters.
func (s *CacheService) Stats() *redis.PoolStats {
	return s.client.PoolStats()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/config"
)

const redisKeyPrefix = "lifecode:recipe:"

// RedisCache 以 Redis 保存食譜紀錄（JSON）
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 連線 Redis 並測試連接
func NewRedisCache(cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

// NewRedisCacheWithClient 使用既有的 client
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Driver 快取實作名稱
func (s *RedisCache) Driver() string { return config.CacheRedis }

// Get 獲取緩存
func (s *RedisCache) Get(ctx context.Context, key string) (*recipe.RecipeRecord, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var rec recipe.RecipeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return &rec, nil
}

// Set 設置緩存
func (s *RedisCache) Set(ctx context.Context, rec *recipe.RecipeRecord) error {
	if rec == nil || rec.LookupKey == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.LookupKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete 刪除緩存
func (s *RedisCache) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

// Close 關閉連線
func (s *RedisCache) Close() error {
	return s.client.Close()
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

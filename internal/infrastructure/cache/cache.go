package cache

import (
	"context"
	"errors"
	"fmt"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/config"
)

// 快取錯誤
var (
	ErrMiss = errors.New("cache miss")
	ErrFull = errors.New("cache is full")
)

// RecordCache 以 lookup key 快取食譜紀錄
type RecordCache interface {
	Get(ctx context.Context, key string) (*recipe.RecipeRecord, error)
	Set(ctx context.Context, rec *recipe.RecipeRecord) error
	Delete(ctx context.Context, key string) error
	// Driver 快取實作名稱，用於日誌與指標
	Driver() string
	Close() error
}

// New 依設定建立快取；未啟用時回傳 nil
func New(cfg config.CacheConfig) (RecordCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Driver {
	case config.CacheMemory, "":
		return NewManager(cfg), nil
	case config.CacheRedis:
		rc, err := NewRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

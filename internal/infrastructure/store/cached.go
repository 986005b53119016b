package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/cache"
	"lifecode-recipe/internal/infrastructure/metrics"
	"lifecode-recipe/internal/pkg/common"
)

// CachedStore 在儲存前加一層讀取快取；寫入只在底層成功後才放入快取
type CachedStore struct {
	Store
	cache   cache.RecordCache
	metrics *metrics.Collector
}

// NewCachedStore 包裝儲存；c 為 nil 時直接回傳原儲存
func NewCachedStore(s Store, c cache.RecordCache, m *metrics.Collector) Store {
	if c == nil {
		return s
	}
	return &CachedStore{Store: s, cache: c, metrics: m}
}

// Lookup 先查快取，未命中再查儲存並回填
func (s *CachedStore) Lookup(ctx context.Context, key string) (*recipe.RecipeRecord, error) {
	driver := s.cache.Driver()
	rec, err := s.cache.Get(ctx, key)
	if err == nil {
		common.LogCacheHit(driver, key)
		s.metrics.CacheResult(driver, true)
		return rec, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		common.LogWarn("Cache read failed", zap.String("driver", driver), zap.Error(err))
	}
	common.LogCacheMiss(driver, key)
	s.metrics.CacheResult(driver, false)

	rec, err = s.Store.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, rec)
	return rec, nil
}

// Append 寫入底層儲存，成功後回填快取
func (s *CachedStore) Append(ctx context.Context, rec *recipe.RecipeRecord) error {
	if err := s.Store.Append(ctx, rec); err != nil {
		return err
	}
	s.fill(ctx, rec)
	return nil
}

// Close 關閉快取與儲存
func (s *CachedStore) Close() error {
	cacheErr := s.cache.Close()
	if err := s.Store.Close(); err != nil {
		return err
	}
	return cacheErr
}

func (s *CachedStore) fill(ctx context.Context, rec *recipe.RecipeRecord) {
	if err := s.cache.Set(ctx, rec); err != nil {
		common.LogWarn("Cache write failed",
			zap.String("driver", s.cache.Driver()),
			zap.String("lookup_key", rec.LookupKey),
			zap.Error(err),
		)
	}
}

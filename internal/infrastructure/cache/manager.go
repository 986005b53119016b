package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/pkg/common"
)

// Manager 記憶體快取：TTL 到期、容量滿時先清過期再以 LRU 淘汰
type Manager struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	store map[string]cacheEntry
	stats Stats

	done      chan struct{}
	closeOnce sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	record      recipe.RecipeRecord
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 緩存統計
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewManager 創建記憶體快取並啟動定期清理
func NewManager(cfg config.CacheConfig) *Manager {
	m := &Manager{
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
		store:   make(map[string]cacheEntry),
		done:    make(chan struct{}),
	}
	if m.maxSize <= 0 {
		m.maxSize = 1000
	}

	if cfg.CleanupInterval > 0 {
		go m.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", m.maxSize),
		zap.Duration("存活時間", m.ttl),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return m
}

// Driver 快取實作名稱
func (m *Manager) Driver() string { return config.CacheMemory }

// Get 取得快取的紀錄；不存在或已過期回傳 ErrMiss
func (m *Manager) Get(_ context.Context, key string) (*recipe.RecipeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.store[key]
	if !ok {
		m.stats.Misses++
		return nil, ErrMiss
	}
	now := m.now()
	if m.expired(entry, now) {
		delete(m.store, key)
		m.stats.Evictions++
		m.stats.Misses++
		return nil, ErrMiss
	}

	entry.lastAccess = now
	entry.accessCount++
	m.store[key] = entry
	m.stats.Hits++

	return entry.record.Clone(), nil
}

// Set 寫入紀錄；容量已滿時先清理過期項目，仍滿則淘汰最少使用的項目
func (m *Manager) Set(_ context.Context, rec *recipe.RecipeRecord) error {
	if rec == nil || rec.LookupKey == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[rec.LookupKey]; !exists && len(m.store) >= m.maxSize {
		if evicted := m.cleanup(); evicted > 0 {
			common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
		}
		if len(m.store) >= m.maxSize {
			m.evictLRU()
		}
		if len(m.store) >= m.maxSize {
			return ErrFull
		}
	}

	now := m.now()
	m.store[rec.LookupKey] = cacheEntry{
		record:     *rec.Clone(),
		expiresAt:  now.Add(m.ttl),
		createdAt:  now,
		lastAccess: now,
	}
	return nil
}

// Delete 移除紀錄
func (m *Manager) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

func (m *Manager) expired(e cacheEntry, now time.Time) bool {
	return m.ttl > 0 && now.After(e.expiresAt)
}

// startCleanup 定期清理過期項目
func (m *Manager) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			n := m.cleanup()
			m.mu.Unlock()
			if n > 0 {
				common.LogDebug("Cleaned up expired cache entries", zap.Int("count", n))
			}
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫者須持有鎖
func (m *Manager) cleanup() int {
	now := m.now()
	count := 0
	for key, entry := range m.store {
		if m.expired(entry, now) {
			delete(m.store, key)
			count++
			m.stats.Evictions++
		}
	}
	return count
}

// evictLRU 淘汰存取次數最少、最久未存取的項目
func (m *Manager) evictLRU() {
	var (
		oldestKey         string
		oldestAccess      time.Time
		lowestAccessCount int
	)
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}
	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.Evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 獲取緩存統計信息
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = len(m.store)
	s.MaxSize = m.maxSize
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close 停止清理並清空快取
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		stats := m.stats
		m.store = make(map[string]cacheEntry)
		m.mu.Unlock()
		common.LogInfo("快取管理員已關閉",
			zap.Int64("命中次數", stats.Hits),
			zap.Int64("未命中次數", stats.Misses),
			zap.Int64("淘汰次數", stats.Evictions),
		)
	})
	return nil
}

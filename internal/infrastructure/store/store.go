package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/config"
)

// 儲存錯誤，與 recipe 套件共用同一組哨兵
var (
	ErrNotFound      = recipe.ErrRecordNotFound
	ErrAlreadyExists = recipe.ErrRecordExists
)

// Store 食譜儲存後端：lookup key 唯一，紀錄寫入後不可修改
type Store interface {
	recipe.Store
	// List 依建立順序回傳所有紀錄
	List(ctx context.Context) ([]*recipe.RecipeRecord, error)
	Close() error
}

// Open 依設定開啟儲存後端；opts 只作用於 CSV
func Open(cfg config.StoreConfig, opts ...CSVOption) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.StoreCSV:
		s, err = OpenCSV(cfg.Path, opts...)
	case config.StoreSQLite:
		s, err = OpenSQLite(cfg.Path)
	case config.StoreBadger:
		s, err = OpenBadger(cfg.Path)
	case config.StoreMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MemoryStore 記憶體儲存，供測試與 CLI 試用
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*recipe.RecipeRecord
	order   []string
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*recipe.RecipeRecord)}
}

// Lookup 以 lookup key 查詢
func (s *MemoryStore) Lookup(_ context.Context, key string) (*recipe.RecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Append 附加新紀錄
func (s *MemoryStore) Append(_ context.Context, rec *recipe.RecipeRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.LookupKey]; ok {
		return ErrAlreadyExists
	}
	s.records[rec.LookupKey] = rec.Clone()
	s.order = append(s.order, rec.LookupKey)
	return nil
}

// List 依寫入順序列出
func (s *MemoryStore) List(_ context.Context) ([]*recipe.RecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recipe.RecipeRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key].Clone())
	}
	return out, nil
}

// Close 無資源需要釋放
func (s *MemoryStore) Close() error { return nil }

func validate(rec *recipe.RecipeRecord) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if rec.LookupKey == "" {
		return fmt.Errorf("record %q has an empty lookup key", rec.Name)
	}
	return nil
}

// sortByCreated 依建立時間排序，相同時間保持原順序
func sortByCreated(recs []*recipe.RecipeRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}

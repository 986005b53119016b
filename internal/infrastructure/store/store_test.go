package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/cache"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/infrastructure/metrics"
)

var created = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func sample(key string, offset time.Duration) *recipe.RecipeRecord {
	return &recipe.RecipeRecord{
		ID:        "id-" + key,
		Name:      key,
		LookupKey: key,
		Title:     "Ragi Kali",
		Portion:   "1 plate",
		Ingredients: []recipe.IngredientLine{
			{Name: "Ragi Flour", Quantity: "100 g", Purpose: "base"},
			{Raw: "Water - 200 ml"},
		},
		MatchedGroceries: []matching.Grocery{
			{Line: "Ragi Flour - 100 g", Name: "Ragi Flour", SKU: "RF-1", Score: 1, UnitPrice: 92, Cost: 9.2},
		},
		UnmatchedGroceries: []matching.Grocery{},
		Accompaniment:      recipe.NotApplicable,
		TotalCost:          9.2,
		PreparationSteps:   "1. Boil water.\n2. Stir in ragi flour.",
		ReportedCost:       "₹ 9.20",
		Extra:              map[string]string{"Tips": "Serve hot"},
		CreatedAt:          created.Add(offset),
	}
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"csv": func(t *testing.T) Store {
			s, err := OpenCSV(filepath.Join(t.TempDir(), "data", "recipes.csv"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "recipes.db"))
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })

			_, err := s.Lookup(ctx, "ragi kali")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Append(ctx, sample("ragi kali", 0)))
			require.NoError(t, s.Append(ctx, sample("idli", time.Minute)))

			got, err := s.Lookup(ctx, "ragi kali")
			require.NoError(t, err)
			assert.Equal(t, "id-ragi kali", got.ID)
			assert.Equal(t, "Ragi Kali", got.Title)
			assert.InDelta(t, 9.2, got.TotalCost, 1e-9)
			assert.Len(t, got.Ingredients, 2)
			require.Len(t, got.MatchedGroceries, 1)
			assert.Equal(t, "RF-1", got.MatchedGroceries[0].SKU)
			assert.Equal(t, "Serve hot", got.Extra["Tips"])
			assert.True(t, created.Equal(got.CreatedAt))

			err = s.Append(ctx, sample("ragi kali", time.Hour))
			assert.ErrorIs(t, err, ErrAlreadyExists)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "ragi kali", list[0].LookupKey)
			assert.Equal(t, "idli", list[1].LookupKey)

			assert.Error(t, s.Append(ctx, &recipe.RecipeRecord{Name: "no key"}))
		})
	}
}

func TestStoreConcurrentAppendSameKey(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })

			var wg sync.WaitGroup
			var ok atomic.Int32
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := s.Append(ctx, sample("dosa", 0)); err == nil {
						ok.Add(1)
					} else {
						assert.ErrorIs(t, err, ErrAlreadyExists)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), ok.Load())

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestStoreReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })

			in := sample("ragi kali", 0)
			require.NoError(t, s.Append(ctx, in))
			in.Ingredients[0].Name = "changed after append"
			in.Extra["Tips"] = "changed after append"

			got, err := s.Lookup(ctx, "ragi kali")
			require.NoError(t, err)
			got.Ingredients[0].Name = "changed"
			got.MatchedGroceries[0].SKU = "changed"
			got.Extra["Tips"] = "changed"

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			list[0].Extra["Tips"] = "changed from list"

			again, err := s.Lookup(ctx, "ragi kali")
			require.NoError(t, err)
			assert.Equal(t, "Ragi Flour", again.Ingredients[0].Name)
			assert.Equal(t, "RF-1", again.MatchedGroceries[0].SKU)
			assert.Equal(t, "Serve hot", again.Extra["Tips"])
		})
	}
}

func TestCSVStoreFileCreatedAfterOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	// 另一個程序在開啟後才建立檔案
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(csvHeader, ",")+"\n"), 0o644))
	require.NoError(t, s.Append(ctx, sample("ragi kali", 0)))

	reopened, err := OpenCSV(path)
	require.NoError(t, err)
	got, err := reopened.Lookup(ctx, "ragi kali")
	require.NoError(t, err)
	assert.Equal(t, "Ragi Kali", got.Title)
	assert.InDelta(t, 9.2, got.TotalCost, 1e-9)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "id,name,lookup_key"))
}

func TestCSVStoreRejectsForeignHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o644))

	assert.Error(t, s.Append(ctx, sample("ragi kali", 0)))
	_, err = s.Lookup(ctx, "ragi kali")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo,bar\n1,2\n", string(data))
}

func TestCSVStoreReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, sample("ragi kali", 0)))
	require.NoError(t, s.Close())

	reopened, err := OpenCSV(path)
	require.NoError(t, err)
	got, err := reopened.Lookup(ctx, "ragi kali")
	require.NoError(t, err)
	assert.Equal(t, "1. Boil water.\n2. Stir in ragi flour.", got.PreparationSteps)
	assert.Equal(t, "Ragi Flour", got.Ingredients[0].Name)

	require.NoError(t, reopened.Append(ctx, sample("idli", time.Minute)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// 只有一行表頭
	assert.Equal(t, 1, strings.Count(string(data), "id,name,lookup_key"))
}

func TestCSVStoreLegacyColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.csv")
	legacy := "Recipe_Name,Recipe_Name_Tamil,Standard_Portion_Assumed_(Per_Person),Ingredients_(with_unit_quantity),Organic_Grocery_Required_(Per_Person),Grocery_Didn’t_Match_(if_any),Suitable_Accompaniment_(if_any),Total_Cost_(₹_Per_Person),Response\n" +
		"Ragi Kali,ragi kali,1 plate,\"- Ragi Flour - 100 g\n- Water - 200 ml\",Ragi Flour,,,₹ 9.20,Boil and stir.\n" +
		"Ragi Kali again,ragi kali,2 plates,,,,,₹ 18.40,Duplicate row.\n" +
		"Kesari,,1 bowl,,,,Banana,\"₹ 1,094.50\",Roast rava.\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := OpenCSV(path, WithKeyFunc(func(name string) string { return "key:" + name }))
	require.NoError(t, err)

	got, err := s.Lookup(ctx, "ragi kali")
	require.NoError(t, err)
	assert.Equal(t, "Ragi Kali", got.Name)
	assert.Equal(t, "1 plate", got.Portion)
	assert.Equal(t, recipe.NotApplicable, got.Accompaniment)
	assert.InDelta(t, 9.2, got.TotalCost, 1e-9)
	assert.Equal(t, "Boil and stir.", got.PreparationSteps)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Ragi Flour - 100 g", got.Ingredients[0].Raw)

	kesari, err := s.Lookup(ctx, "key:Kesari")
	require.NoError(t, err)
	assert.Equal(t, "Banana", kesari.Accompaniment)
	assert.InDelta(t, 1094.5, kesari.TotalCost, 1e-9)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 舊表頭下繼續附加仍可讀回
	require.NoError(t, s.Append(ctx, sample("idli", 0)))
	reopened, err := OpenCSV(path)
	require.NoError(t, err)
	idli, err := reopened.Lookup(ctx, "idli")
	require.NoError(t, err)
	assert.Equal(t, "idli", idli.Name)
	assert.Equal(t, "1 plate", idli.Portion)
}

func TestCSVStoreEmptyPath(t *testing.T) {
	_, err := OpenCSV("")
	assert.Error(t, err)
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"₹ 94.00", 94},
		{"1,094.50", 1094.5},
		{"94", 94},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseCost(tt.in), 1e-9, tt.in)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []config.StoreConfig{
		{Driver: config.StoreMemory},
		{Driver: config.StoreCSV, Path: filepath.Join(dir, "r.csv")},
		{Driver: config.StoreSQLite, Path: filepath.Join(dir, "r.db")},
		{Driver: config.StoreBadger, Path: filepath.Join(dir, "badger")},
	} {
		s, err := Open(cfg)
		require.NoError(t, err, cfg.Driver)
		require.NoError(t, s.Close())
	}

	_, err := Open(config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	base := NewMemoryStore()
	s := NewCachedStore(base, c, m)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Append(ctx, sample("idli", 0)))

	// Append 已回填快取
	got, err := s.Lookup(ctx, "idli")
	require.NoError(t, err)
	assert.Equal(t, "id-idli", got.ID)

	_, err = s.Lookup(ctx, "dosa")
	assert.ErrorIs(t, err, ErrNotFound)

	// 直接寫入底層後，第一次查詢未命中、第二次命中
	require.NoError(t, base.Append(ctx, sample("vada", 0)))
	_, err = s.Lookup(ctx, "vada")
	require.NoError(t, err)
	_, err = s.Lookup(ctx, "vada")
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	n, err := testutil.GatherAndCount(reg, "lifecode_recipe_record_cache_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewCachedStoreWithoutCache(t *testing.T) {
	base := NewMemoryStore()
	assert.Same(t, Store(base), NewCachedStore(base, nil, nil))
}

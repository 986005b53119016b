package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/infrastructure/config"
)

func newTestManager(t *testing.T, size int, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	m := NewManager(config.CacheConfig{MaxSize: size, TTL: ttl})
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	t.Cleanup(func() { _ = m.Close() })
	return m, &now
}

func rec(key string) *recipe.RecipeRecord {
	return &recipe.RecipeRecord{ID: "id-" + key, Name: key, LookupKey: key, TotalCost: 94}
}

func TestManagerGetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 10, time.Hour)

	_, err := m.Get(ctx, "idli")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, rec("idli")))
	got, err := m.Get(ctx, "idli")
	require.NoError(t, err)
	assert.Equal(t, "id-idli", got.ID)

	// 回傳的是副本
	got.Name = "changed"
	again, err := m.Get(ctx, "idli")
	require.NoError(t, err)
	assert.Equal(t, "idli", again.Name)

	s := m.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Size)
	assert.InDelta(t, 2.0/3.0, s.HitRatio, 1e-9)

	require.NoError(t, m.Delete(ctx, "idli"))
	_, err = m.Get(ctx, "idli")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManagerStoresIndependentCopies(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 10, time.Hour)

	in := rec("ragi kali")
	in.Extra = map[string]string{"Tips": "Serve hot"}
	require.NoError(t, m.Set(ctx, in))
	in.Extra["Tips"] = "changed"

	got, err := m.Get(ctx, "ragi kali")
	require.NoError(t, err)
	assert.Equal(t, "Serve hot", got.Extra["Tips"])
	got.Extra["Tips"] = "changed again"

	again, err := m.Get(ctx, "ragi kali")
	require.NoError(t, err)
	assert.Equal(t, "Serve hot", again.Extra["Tips"])
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m, now := newTestManager(t, 10, time.Minute)

	require.NoError(t, m.Set(ctx, rec("dosa")))
	*now = now.Add(2 * time.Minute)

	_, err := m.Get(ctx, "dosa")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, int64(1), m.Stats().Evictions)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m, now := newTestManager(t, 2, time.Hour)

	require.NoError(t, m.Set(ctx, rec("a")))
	*now = now.Add(time.Second)
	require.NoError(t, m.Set(ctx, rec("b")))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, rec("c")))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerIgnoresRecordsWithoutKey(t *testing.T) {
	m, _ := newTestManager(t, 1, time.Hour)
	assert.NoError(t, m.Set(context.Background(), &recipe.RecipeRecord{Name: "x"}))
	assert.NoError(t, m.Set(context.Background(), nil))
	assert.Equal(t, 0, m.Stats().Size)
}

func TestNewSelectsDriver(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(config.CacheConfig{Enabled: true, Driver: config.CacheMemory, MaxSize: 5, TTL: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, config.CacheMemory, c.Driver())
	_ = c.Close()

	_, err = New(config.CacheConfig{Enabled: true, Driver: "memcached"})
	assert.Error(t, err)
}

func TestRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache(config.CacheConfig{RedisAddr: "127.0.0.1:1", TTL: time.Minute})
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "lifecode:recipe:ragi kali", redisKey("ragi kali"))
}

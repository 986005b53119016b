package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	assert.True(t, rl.allowAt("a", now))
	assert.True(t, rl.allowAt("a", now))
	assert.False(t, rl.allowAt("a", now))

	// 其他用戶端有自己的額度
	assert.True(t, rl.allowAt("b", now))

	// 約 30 秒補回一個 token
	assert.True(t, rl.allowAt("a", now.Add(31*time.Second)))
	assert.False(t, rl.allowAt("a", now.Add(31*time.Second)))
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	rl.allowAt("old", now)
	rl.allowAt("new", now.Add(5*time.Minute))

	assert.Equal(t, 1, rl.Sweep(now.Add(5*time.Minute)))
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "new")
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, 1, rl.burst)
	assert.Equal(t, 3*time.Minute, rl.idle)
}

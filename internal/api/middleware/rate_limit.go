package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lifecode-recipe/internal/pkg/common"
)

// maxTrackedClients 超過時新用戶端進來會先清掉閒置項目
const maxTrackedClients = 4096

// RateLimiter 依用戶端 IP 限流，每個 IP 一個 token bucket
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 每個 window 允許 requests 次請求
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		idle:    3 * window,
		clients: make(map[string]*client),
	}
}

// Allow 檢查該 key 是否還有額度
func (rl *RateLimiter) Allow(key string) bool {
	return rl.allowAt(key, time.Now())
}

func (rl *RateLimiter) allowAt(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			rl.sweepLocked(now)
		}
		cl = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep 移除閒置的用戶端
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweepLocked(now)
}

func (rl *RateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.idle {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// Middleware 超過額度回傳 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(time.Duration(float64(time.Second) / float64(rl.limit)).Seconds()) + 1)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorBody(common.ErrTooManyRequests, false))
			return
		}
		c.Next()
	}
}

// RateLimit 建立限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(requests, window).Middleware()
}

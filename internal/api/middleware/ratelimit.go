package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/post-batch/pkg/logger"
	"github.com/d60-Lab/post-batch/pkg/response"
)

// Limiter 判断 key 本次请求是否放行
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter 进程内令牌桶，每个 key 一个 rate.Limiter
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter window 内平均放行 requests 次，允许 burst 突发
func NewMemoryLimiter(requests int, window time.Duration, burst int) *MemoryLimiter {
	if burst <= 0 {
		burst = requests
	}
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   burst,
		idleTTL: 2 * window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Sweep 清理长时间未访问的 key
func (l *MemoryLimiter) Sweep() int {
	cutoff := time.Now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			removed++
		}
	}
	return removed
}

// StartSweeper 周期清理，返回停止函数
func (l *MemoryLimiter) StartSweeper(interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

// RedisLimiter 固定窗口计数（INCR + EXPIRE），多实例共享
type RedisLimiter struct {
	rdb    redis.UniversalClient
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: int64(requests), window: window, prefix: "rl:post-batch:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	// 窗口内首次请求设置过期时间
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}

// RateLimit 按客户端 IP 限流；限流器出错时放行并记录日志
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			c.Next()
			return
		}
		if !ok {
			response.AbortError(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "RateLimited")
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"signature-gateway/errors"
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/signature"

	"github.com/gin-gonic/gin"
)

// TokenBucket 令牌桶结构
type TokenBucket struct {
	capacity   float64    // 桶容量
	tokens     float64    // 当前令牌数
	refillRate float64    // 每秒补充令牌数
	lastRefill time.Time  // 上次补充时间
	lastUsed   time.Time  // 上次消耗时间
	mutex      sync.Mutex // 互斥锁
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	now := time.Now()
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now,
		lastUsed:   now,
	}
}

func (tb *TokenBucket) refill(now time.Time) {
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// HasToken 是否还有令牌（不消耗）
func (tb *TokenBucket) HasToken() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill(time.Now())
	return tb.tokens >= 1
}

// TakeToken 尝试获取令牌
func (tb *TokenBucket) TakeToken() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	tb.refill(now)
	tb.lastUsed = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimitMiddleware 限制每个调用方的签名校验失败次数，防止暴力尝试签名
type RateLimitMiddleware struct {
	buckets  map[string]*TokenBucket // 调用方 -> 令牌桶
	mutex    sync.RWMutex
	perMin   int
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimitMiddleware 创建失败限流中间件，failuresPerMinute 为每分钟允许的失败次数
func NewRateLimitMiddleware(failuresPerMinute int) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		buckets:  make(map[string]*TokenBucket),
		perMin:   failuresPerMinute,
		interval: 5 * time.Minute,
		stop:     make(chan struct{}),
	}

	// 启动清理协程，定期清理不活跃的令牌桶
	go rl.cleanup()

	return rl
}

// LimitFailures 放在 Verify 之前：额度用完的调用方直接拒绝，校验失败时扣减额度。
// X-Client-Id 只有在客户存储中存在时才单独计数，否则按来源 IP 计数
func (rl *RateLimitMiddleware) LimitFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.admissionKey(c)
		if bucket, ok := rl.bucket(key); ok && !bucket.HasToken() {
			logger.WithContext(c.Request.Context()).Infof("Too many failed verifications from %s", key)
			errors.RespondWithError(c, http.StatusTooManyRequests, errors.NewTooManyFailuresError())
			return
		}

		c.Next()

		if res, ok := ResultFromContext(c); ok && !res.OK {
			rl.getOrCreateBucket(rl.failureKey(c)).TakeToken()
		}
	}
}

// admissionKey 已有计数的 client id 优先，其余请求按来源 IP 判断
func (rl *RateLimitMiddleware) admissionKey(c *gin.Context) string {
	if clientID := c.GetHeader(signature.HeaderClientID); clientID != "" {
		key := "client:" + clientID
		if _, ok := rl.bucket(key); ok {
			return key
		}
	}
	return "ip:" + c.ClientIP()
}

// failureKey 校验失败时扣减的令牌桶，未知的 client id 不会创建新桶
func (rl *RateLimitMiddleware) failureKey(c *gin.Context) string {
	if clientID := c.GetString(ContextKeyKnownClientID); clientID != "" {
		return "client:" + clientID
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimitMiddleware) bucket(key string) (*TokenBucket, bool) {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()
	bucket, ok := rl.buckets[key]
	return bucket, ok
}

// getOrCreateBucket 获取或创建令牌桶
func (rl *RateLimitMiddleware) getOrCreateBucket(key string) *TokenBucket {
	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()
	if exists {
		return bucket
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	// 双重检查，防止并发创建
	if bucket, exists := rl.buckets[key]; exists {
		return bucket
	}

	bucket = NewTokenBucket(rl.perMin, float64(rl.perMin)/60)
	rl.buckets[key] = bucket
	return bucket
}

// cleanup 清理不活跃的令牌桶
func (rl *RateLimitMiddleware) cleanup() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep(time.Now(), 2*rl.interval)
		}
	}
}

func (rl *RateLimitMiddleware) sweep(now time.Time, idle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		if now.Sub(bucket.lastUsed) > idle {
			delete(rl.buckets, key)
		}
		bucket.mutex.Unlock()
	}
}

// Stop 停止清理协程
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// GetBucketStats 获取令牌桶统计信息（用于监控）
func (rl *RateLimitMiddleware) GetBucketStats() map[string]map[string]any {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	stats := make(map[string]map[string]any, len(rl.buckets))
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		stats[key] = map[string]any{
			"capacity":    bucket.capacity,
			"tokens":      bucket.tokens,
			"refill_rate": bucket.refillRate,
			"last_used":   bucket.lastUsed,
		}
		bucket.mutex.Unlock()
	}
	return stats
}

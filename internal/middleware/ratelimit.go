// 包 middleware：HTTP 入口的通用中间件
package middleware

import (
	"net/http"
	"sync"

	"github.com/benbjohnson/clock"

	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
)

// 文档注释：令牌桶限流（每秒）
// 背景：在流量峰值时对入口限速，避免上游定位服务的配额被突发流量耗尽。
// 约束：简化实现，不做队列排队，超额请求直接返回 429；每个自然秒重置令牌。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	clk      clock.Clock
	mu       sync.Mutex
}

func NewTokenBucket(qps int, clk clock.Clock) *TokenBucket {
	if clk == nil {
		clk = clock.New()
	}
	if qps <= 0 {
		qps = 200
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: clk.Now().Unix(), clk: clk}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.clk.Now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：tb 为 nil 时不限流
func RateLimit(tb *TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.Allow() {
				metrics.RateLimitedTotal.Inc()
				logger.From(r.Context()).Debug("rate_limited", "path", r.URL.Path)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

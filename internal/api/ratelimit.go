package api

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyedLimiter 按任意字符串键维护独立的令牌桶。长时间不活跃的键会被回收,
// 防止 map 无限增长。
type keyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newKeyedLimiter(perMinute int, burst int) *keyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &keyedLimiter{
		buckets: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

// Allow reports whether the key may proceed and consumes a token if so.
func (k *keyedLimiter) Allow(key string) bool {
	now := time.Now()

	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.buckets[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = entry
	}
	entry.lastSeen = now

	if len(k.buckets) > 1024 {
		k.evictIdle(now)
	}

	return entry.limiter.Allow()
}

func (k *keyedLimiter) evictIdle(now time.Time) {
	for key, entry := range k.buckets {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(k.buckets, key)
		}
	}
}

// AuthRateLimit 限制认证端点的调用频率:先按客户端 IP,登录再按目标邮箱,
// 阻止针对单个账号的分布式爆破。
func (h *HTTPHandler) AuthRateLimit(perEmail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.ipLimiter.Allow(c.ClientIP()) {
			c.Abort()
			TooManyRequests(c, "too many requests, slow down")
			return
		}

		if perEmail {
			var probe struct {
				Email string `json:"email"`
			}
			// 只嗅探邮箱字段,请求体留给处理函数重新绑定
			if body, err := c.GetRawData(); err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
				if err := json.Unmarshal(body, &probe); err == nil {
					email := strings.ToLower(strings.TrimSpace(probe.Email))
					if email != "" && !h.emailLimiter.Allow(email) {
						c.Abort()
						TooManyRequests(c, "too many attempts for this account")
						return
					}
				}
			}
		}

		c.Next()
	}
}

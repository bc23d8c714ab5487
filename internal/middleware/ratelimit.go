package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const msgRateLimited = "You're doing that too often. Please slow down."

// maxLimiters bounds the tracked keys. The least recently seen key is evicted first.
var maxLimiters = 10000

type limiterPool struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *rate.Limiter]
	rps   float64
	burst int
}

func newLimiterPool(size int, rps float64, burst int) (*limiterPool, error) {
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &limiterPool{cache: cache, rps: rps, burst: burst}, nil
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.cache.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.cache.Add(key, l)
	return l
}

// limitKey is the session id for a returning client. A client without a valid cookie gets a
// new id on every request, so it is limited by IP instead.
func limitKey(c *gin.Context) string {
	if returningUser(c) {
		return "user:" + UserID(c)
	}
	return "ip:" + c.ClientIP()
}

// RateLimit applies a token bucket per client.
// JSON requests get a 429 body; form posts are redirected back with a notice.
func RateLimit(rps float64, burst int, onLimit gin.HandlerFunc) gin.HandlerFunc {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	pool, err := newLimiterPool(maxLimiters, rps, burst)
	if err != nil {
		panic(err) // only for a non-positive size
	}

	return func(c *gin.Context) {
		if pool.get(limitKey(c)).Allow() {
			c.Next()
			return
		}
		if onLimit != nil {
			onLimit(c)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msgRateLimited})
	}
}

func RateLimitMessage() string { return msgRateLimited }

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
)

// RateLimiter allows limit requests per window for each client. Counters live in
// Redis so every instance shares them; without Redis they are kept in process.
// A Redis failure lets the request through.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*windowCount
}

type windowCount struct {
	window int64
	count  int
}

// NewRateLimiter creates a RateLimiter (e.g., 120 requests per minute). rdb may be nil.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		log:    log.With().Str("component", "rate_limiter").Logger(),
		now:    time.Now,
		local:  make(map[string]*windowCount),
	}
}

// Middleware returns a Gin middleware that rate-limits by operator, or by IP
// before authentication.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			key = "op:" + strconv.Itoa(claims.OperatorID)
		}

		if !rl.allow(c, key) {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, key string) bool {
	window := rl.now().UnixNano() / int64(rl.window)

	if rl.rdb == nil {
		return rl.allowLocal(key, window)
	}

	redisKey := config.CacheKey.RateLimitKey(key, window)
	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(c.Request.Context(), redisKey)
	pipe.Expire(c.Request.Context(), redisKey, rl.window)
	if _, err := pipe.Exec(c.Request.Context()); err != nil {
		rl.log.Warn().Err(err).Str("key", key).Msg("Rate limit check failed, allowing request")
		return true
	}
	return incr.Val() <= int64(rl.limit)
}

func (rl *RateLimiter) allowLocal(key string, window int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc, ok := rl.local[key]
	if !ok || wc.window != window {
		if len(rl.local) > 10000 {
			rl.local = make(map[string]*windowCount)
		}
		wc = &windowCount{window: window}
		rl.local[key] = wc
	}
	wc.count++
	return wc.count <= rl.limit
}

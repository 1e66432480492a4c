package httpmiddleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window, and the burst size.
	Max int
	// Window is the period over which Max requests are refilled.
	Window time.Duration
	// MaxClients bounds the number of tracked clients; the least recently
	// seen is forgotten first. Defaults to 10000.
	MaxClients int
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

type rateLimiter struct {
	cfg      RateLimitConfig
	every    rate.Limit
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	// An idle client's bucket is full again after one window, so it can be
	// dropped and recreated without changing behavior.
	return &rateLimiter{
		cfg:      cfg,
		every:    rate.Every(cfg.Window / time.Duration(cfg.Max)),
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.Window),
	}
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(rl.every, rl.cfg.Max)
	}
	rl.limiters.Add(key, l)
	return l
}

// reserve takes one token for key. When none is available it returns
// allowed false and the wait until the next token.
func (rl *rateLimiter) reserve(key string, now time.Time) (remaining int, wait time.Duration, allowed bool) {
	l := rl.limiter(key)

	res := l.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return 0, delay, false
	}
	remaining = int(math.Floor(l.TokensAt(now)))
	return max(remaining, 0), 0, true
}

// RateLimit limits each client to cfg.Max requests per cfg.Window with a
// token bucket. Rejected requests get 429 with Retry-After. Every response
// carries X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait, allowed := rl.reserve(rl.cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP uses the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Fixed window length
	KeyFunc  func(r *http.Request) []string // Keys counted for a request
	SkipFunc func(r *http.Request) bool
}

// RateLimiter counts requests per key in fixed Redis windows.
type RateLimiter struct {
	rdb    *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{rdb: rdb, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.Allow(r.Context(), key)
				if err != nil {
					// fail open
					logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !allowed {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Allow counts one request against key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	n, err := rl.rdb.Incr(ctx, hashed).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := rl.rdb.Expire(ctx, hashed, rl.config.Window).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(rl.config.Requests), nil
}

// ClientIPKey limits by client address.
func ClientIPKey(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

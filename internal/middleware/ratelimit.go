package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/allevo/cloud-store/internal/cache"
)

// Limiter decides whether a request from ip may proceed.
type Limiter interface {
	Allow(ctx context.Context, ip string) (*cache.RateLimitResult, error)
}

// LimiterFunc adapts a function to the Limiter interface.
type LimiterFunc func(ctx context.Context, ip string) (*cache.RateLimitResult, error)

// Allow implements Limiter.
func (f LimiterFunc) Allow(ctx context.Context, ip string) (*cache.RateLimitResult, error) {
	return f(ctx, ip)
}

// RedisLoginLimiter limits login attempts per IP with the shared Redis token bucket.
func RedisLoginLimiter(c *cache.Cache, perMinute, burst int) Limiter {
	return LimiterFunc(func(ctx context.Context, ip string) (*cache.RateLimitResult, error) {
		return c.CheckLoginRateLimit(ctx, ip, perMinute, burst)
	})
}

// RedisIPLimiter limits requests per IP with the shared Redis token bucket.
func RedisIPLimiter(c *cache.Cache, perSecond, burst int) Limiter {
	return LimiterFunc(func(ctx context.Context, ip string) (*cache.RateLimitResult, error) {
		return c.CheckIPRateLimit(ctx, ip, perSecond, burst)
	})
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter Limiter // nil disables limiting
	Scope   string  // log label, e.g. "login" or "catalog"
}

// RateLimit returns middleware that rejects requests over the per-IP budget
// with 429 and a Retry-After header. Limiter errors fail open.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			result, err := cfg.Limiter.Allow(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("scope", cfg.Scope),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			if !result.Allowed {
				retryAfter := retryAfterSeconds(result.RetryAfter)
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("scope", cfg.Scope),
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// getClientIP returns the host part of RemoteAddr. Proxy headers are
// resolved earlier by chi's RealIP middleware.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/allevo/cloud-store/internal/cache"
)

const (
	localLimiterIdleTTL    = 10 * time.Minute
	localLimiterSweepEvery = time.Minute
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process per-IP token bucket used when Redis is not
// configured. Budgets are per instance.
type LocalLimiter struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows perMinute requests per IP with the given burst.
func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, ip string) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.entries[ip]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: time.Minute}, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &cache.RateLimitResult{
			Allowed:    false,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	remaining := int64(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   now,
	}, nil
}

// sweep drops idle entries. Caller holds l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < localLimiterSweepEvery {
		return
	}
	l.lastSweep = now
	for ip, e := range l.entries {
		if now.Sub(e.lastSeen) > localLimiterIdleTTL {
			delete(l.entries, ip)
		}
	}
}

func (l *LocalLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/allevo/cloud-store/internal/cache"
)

func TestRateLimit_LocalLimiter(t *testing.T) {
	limiter := NewLocalLimiter(60, 2)
	handler := RateLimit(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Scope: "login"})(okHandler())

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("10.0.0.1:5678")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if rec := send("10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("other IP: status = %d, want 200", rec.Code)
	}
	if limiter.tracked() != 2 {
		t.Errorf("tracked IPs = %d, want 2", limiter.tracked())
	}
}

func TestLocalLimiter_Refills(t *testing.T) {
	limiter := NewLocalLimiter(60, 1)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	if res, _ := limiter.Allow(ctx, "10.0.0.1"); !res.Allowed {
		t.Fatal("first request should pass")
	}
	res, _ := limiter.Allow(ctx, "10.0.0.1")
	if res.Allowed {
		t.Fatal("second request should be limited")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want (0, 1s]", res.RetryAfter)
	}

	now = now.Add(time.Second)
	if res, _ := limiter.Allow(ctx, "10.0.0.1"); !res.Allowed {
		t.Fatal("bucket should refill after one second")
	}
}

func TestLocalLimiter_PrunesIdleEntries(t *testing.T) {
	limiter := NewLocalLimiter(60, 1)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "10.0.0.1")
	now = now.Add(localLimiterIdleTTL + localLimiterSweepEvery + time.Second)
	_, _ = limiter.Allow(context.Background(), "10.0.0.2")

	if limiter.tracked() != 1 {
		t.Errorf("tracked IPs = %d, want 1", limiter.tracked())
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	failing := LimiterFunc(func(ctx context.Context, ip string) (*cache.RateLimitResult, error) {
		return nil, errors.New("redis down")
	})
	handler := RateLimit(RateLimitConfig{Logger: discardLogger(), Limiter: failing, Scope: "login"})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_NilLimiterDisabled(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Logger: discardLogger()})(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{30 * time.Second, 30},
	}
	for _, tt := range tests {
		if got := retryAfterSeconds(tt.in); got != tt.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := getClientIP(req); got != tt.want {
			t.Errorf("getClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

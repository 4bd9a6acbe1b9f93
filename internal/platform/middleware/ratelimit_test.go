package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{Requests: 5, Window: time.Minute}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Errorf("request %d: expected X-RateLimit-Limit '5', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{Requests: 2, Window: time.Minute}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	cfg := RateLimitConfig{Requests: 1, Window: time.Minute}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Error("expected Retry-After header to be set")
	}
	retryVal, parseErr := strconv.Atoi(retryAfter)
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", retryAfter)
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	cfg := RateLimitConfig{Requests: 1, Window: time.Minute}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	send := func(ip string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		return handler(e.NewContext(req, rec))
	}

	if err := send("10.0.0.1"); err != nil {
		t.Fatalf("first request from 10.0.0.1: expected no error, got %v", err)
	}
	if err := send("10.0.0.1"); err == nil {
		t.Fatal("second request from 10.0.0.1: expected rate limit error")
	}
	if err := send("10.0.0.2"); err != nil {
		t.Fatalf("first request from 10.0.0.2: expected no error, got %v", err)
	}
}

func TestRateLimiterStore_WindowReset(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{Requests: 1, Window: time.Minute})

	now := time.Now()
	store.now = func() time.Time { return now }

	if allowed, _, _ := store.take("key"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _, _ := store.take("key"); allowed {
		t.Fatal("second request within the window should be denied")
	}

	now = now.Add(time.Minute + time.Second)
	if allowed, _, _ := store.take("key"); !allowed {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestRateLimiterStore_Sweep(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{Requests: 1, Window: time.Minute})

	now := time.Now()
	store.now = func() time.Time { return now }

	store.take("stale")
	now = now.Add(2 * time.Minute)
	store.take("fresh")

	store.sweep()

	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.windows["stale"]; ok {
		t.Error("expected stale window to be swept")
	}
	if _, ok := store.windows["fresh"]; !ok {
		t.Error("expected fresh window to survive the sweep")
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.Requests != 100 {
		t.Errorf("expected Requests 100, got %d", cfg.Requests)
	}
	if cfg.Window != 15*time.Minute {
		t.Errorf("expected 15m window, got %s", cfg.Window)
	}
}

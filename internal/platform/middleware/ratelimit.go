package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 100,
		Window:   15 * time.Minute,
	}
}

// window counts requests from a single client within a fixed interval.
type window struct {
	count   int
	resetAt time.Time
}

// rateLimiterStore holds per-key request windows.
type rateLimiterStore struct {
	windows map[string]*window
	mu      sync.Mutex
	config  RateLimitConfig
	now     func() time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		windows: make(map[string]*window),
		config:  cfg,
		now:     time.Now,
	}
}

// take records a request for key. It returns whether the request is allowed,
// how many requests remain in the window, and the seconds until reset.
func (s *rateLimiterStore) take(key string) (allowed bool, remaining int, retryAfter int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(s.config.Window)}
		s.windows[key] = w
	}

	retryAfter = int(w.resetAt.Sub(now).Seconds()) + 1
	if w.count >= s.config.Requests {
		return false, 0, retryAfter
	}

	w.count++
	return true, s.config.Requests - w.count, retryAfter
}

// sweep drops expired windows so the store does not grow unbounded.
func (s *rateLimiterStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

// RateLimit returns a fixed-window per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for range ticker.C {
			store.sweep()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, remaining, retryAfter := store.take(c.RealIP())

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"Too many requests, please try again later.")
			}
			return next(c)
		}
	}
}

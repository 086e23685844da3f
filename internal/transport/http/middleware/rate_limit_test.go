package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type memoryRateLimitStore struct {
	attempts map[string][]time.Time
	err      error
}

func newMemoryRateLimitStore() *memoryRateLimitStore {
	return &memoryRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *memoryRateLimitStore) Allow(_ context.Context, identifier string, limit int, window time.Duration, at time.Time) (bool, error) {
	if s.err != nil {
		return false, s.err
	}

	kept := s.attempts[identifier][:0]
	for _, attempt := range s.attempts[identifier] {
		if attempt.After(at.Add(-window)) {
			kept = append(kept, attempt)
		}
	}
	kept = append(kept, at)
	s.attempts[identifier] = kept

	return len(kept) <= limit, nil
}

func newRateLimitRouter(t *testing.T, limiter *RateLimiter, rule RateLimitRule) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/login", limiter.RateLimit(rule), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimit_AllowsWithinLimit(t *testing.T) {
	store := newMemoryRateLimitStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	rule := RateLimitRule{Name: "login", Limit: 3, Window: time.Minute, Identifier: ClientIPIdentifier()}
	router := newRateLimitRouter(t, limiter, rule)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	store := newMemoryRateLimitStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	rule := RateLimitRule{Name: "login", Limit: 2, Window: time.Minute, Identifier: ClientIPIdentifier()}
	router := newRateLimitRouter(t, limiter, rule)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("warmup request %d failed: %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
}

func TestRateLimit_SlidingWindowRecovers(t *testing.T) {
	store := newMemoryRateLimitStore()
	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return current })

	rule := RateLimitRule{Name: "login", Limit: 1, Window: time.Minute, Identifier: ClientIPIdentifier()}
	router := newRateLimitRouter(t, limiter, rule)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside window, got %d", rec.Code)
	}

	current = current.Add(2 * time.Minute)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after window elapsed, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpenOnStoreError(t *testing.T) {
	store := newMemoryRateLimitStore()
	store.err = errors.New("redis down")

	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	rule := RateLimitRule{Name: "login", Limit: 1, Window: time.Minute, Identifier: ClientIPIdentifier()}
	router := newRateLimitRouter(t, limiter, rule)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected the limiter to fail open, got %d", rec.Code)
	}
}

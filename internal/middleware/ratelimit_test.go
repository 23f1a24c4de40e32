package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/middleware"
)

func newLimiter(t *testing.T, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return middleware.RateLimit(cfg, rdb)
}

func limiterConfig(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            time.Hour,
		Prefix:         "rl:auth",
	}
}

func fireRequest(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:4242"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_ExhaustsCapacity(t *testing.T) {
	mw := newLimiter(t, limiterConfig(3))

	for i := 0; i < 3; i++ {
		rec := fireRequest(mw)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := fireRequest(mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimit_SeparateBucketsPerIP(t *testing.T) {
	mw := newLimiter(t, limiterConfig(1))

	e := echo.New()
	for i, addr := range []string{"198.51.100.1:1000", "198.51.100.2:1000"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c), "ip %d has its own bucket", i)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	cfg := limiterConfig(0)
	cfg.Enabled = false
	mw := newLimiter(t, cfg)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, fireRequest(mw).Code)
	}
}

// No Redis wired at all means no limiting, not a refused login.
func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	mw := middleware.RateLimit(limiterConfig(1), nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, fireRequest(mw).Code)
	}
}

// A dead Redis fails open: capacity protection never outranks availability
// of the auth endpoints.
func TestRateLimit_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mw := middleware.RateLimit(limiterConfig(1), rdb)

	mr.Close()
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, fireRequest(mw).Code)
	}
}

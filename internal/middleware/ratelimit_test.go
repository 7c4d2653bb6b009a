package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/model"
)

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client, now func() time.Time) *echo.Echo {
	t.Helper()
	logger, _ := test.NewNullLogger()
	e := echo.New()
	e.Use(newTokenBucket(cfg, rdb, logger, now))
	e.POST("/v1/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func post(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "auth:rl",
	}
}

func TestTokenBucket_LimitsAndRefills(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	clock := time.UnixMilli(1_700_000_000_000)
	e := newLimitedEcho(t, testLimitConfig(), rdb, func() time.Time { return clock })

	rec := post(e)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(e).Code)

	rec = post(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":1}`, rec.Body.String())

	assert.True(t, mr.Exists("auth:rl:ip:203.0.113.9:route:POST /v1/auth/login"))

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusOK, post(e).Code)
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	cfg := testLimitConfig()
	cfg.Capacity = 1
	e := newLimitedEcho(t, cfg, rdb, time.Now)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(e).Code)
	}
}

func TestTokenBucket_DisabledIsPassThrough(t *testing.T) {
	cfg := testLimitConfig()
	cfg.Enabled = false
	e := newLimitedEcho(t, cfg, nil, time.Now)
	for i := 0; i < 5; i++ {
		rec := post(e)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.RemoteAddr = "198.51.100.1:1000"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/users/me")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}
	assert.Equal(t, "rl:ip:198.51.100.1:user:anon", buildRateKey(cfg, c))

	c.SetRequest(req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{ID: "7", Roles: model.NewRoles("customer")})))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:198.51.100.1:user:7:route:GET /v1/users/me", buildRateKey(cfg, c))
}

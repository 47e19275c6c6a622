package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/config"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// catalogStub serves a mutable name through the cache middleware and
// bumps it on PATCH through the invalidation middleware.
type catalogStub struct {
	mu    sync.Mutex
	name  string
	reads atomic.Int32
}

func (s *catalogStub) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *catalogStub) set(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	rdb := newTestRedis(t)
	cfg := testCacheConfig()
	stub := &catalogStub{name: "v1"}

	e := echo.New()
	e.GET("/v1/events/:id", func(c echo.Context) error {
		stub.reads.Add(1)
		return c.String(http.StatusOK, stub.current())
	}, NewRedisCache(cfg, rdb))
	e.PATCH("/v1/events/:id", func(c echo.Context) error {
		stub.set("v2")
		return c.NoContent(http.StatusOK)
	}, InvalidateCache(cfg, rdb, slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := serve(e, http.MethodGet, "/v1/events/1")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = serve(e, http.MethodGet, "/v1/events/1")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "v1", rec.Body.String())
	assert.EqualValues(t, 1, stub.reads.Load())

	require.Equal(t, http.StatusOK, serve(e, http.MethodPatch, "/v1/events/1").Code)

	rec = serve(e, http.MethodGet, "/v1/events/1")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "v2", rec.Body.String())
}

func TestRedisCacheDropsReadRacingAWrite(t *testing.T) {
	rdb := newTestRedis(t)
	cfg := testCacheConfig()
	stub := &catalogStub{name: "v1"}

	started := make(chan struct{})
	release := make(chan struct{})
	var slow atomic.Bool
	slow.Store(true)

	e := echo.New()
	e.GET("/v1/events/:id", func(c echo.Context) error {
		body := stub.current()
		if slow.CompareAndSwap(true, false) {
			// The first read has loaded old data and is slow to answer.
			close(started)
			<-release
		}
		return c.String(http.StatusOK, body)
	}, NewRedisCache(cfg, rdb))
	e.PATCH("/v1/events/:id", func(c echo.Context) error {
		stub.set("v2")
		return c.NoContent(http.StatusOK)
	}, InvalidateCache(cfg, rdb, slog.New(slog.NewTextHandler(io.Discard, nil))))

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- serve(e, http.MethodGet, "/v1/events/1") }()

	<-started
	require.Equal(t, http.StatusOK, serve(e, http.MethodPatch, "/v1/events/1").Code)
	close(release)
	stale := <-done
	assert.Equal(t, "v1", stale.Body.String())

	rec := serve(e, http.MethodGet, "/v1/events/1")
	assert.Equal(t, "v2", rec.Body.String(), "a read that started before the write must not be served afterwards")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestTokenBucketRejectsWhenEmpty(t *testing.T) {
	rdb := newTestRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}

	e := echo.New()
	e.POST("/v1/events/:id/purchase", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb, nil))

	for i := range 2 {
		rec := serve(e, http.MethodPost, "/v1/events/1/purchase")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodPost, "/v1/events/1/purchase")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

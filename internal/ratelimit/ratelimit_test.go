package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddlewareMemoryStore(t *testing.T) {
	mw, err := ratelimit.Middleware(ratelimit.Config{Rate: "2-M"})
	require.NoError(t, err)
	h := mw(okHandler())

	require.Equal(t, http.StatusOK, hit(h))
	require.Equal(t, http.StatusOK, hit(h))
	require.Equal(t, http.StatusTooManyRequests, hit(h))
}

func TestMiddlewareRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw, err := ratelimit.Middleware(ratelimit.Config{Rate: "1-H", Redis: client})
	require.NoError(t, err)
	h := mw(okHandler())

	require.Equal(t, http.StatusOK, hit(h))
	require.Equal(t, http.StatusTooManyRequests, hit(h))
}

func TestMiddlewareDisabled(t *testing.T) {
	mw, err := ratelimit.Middleware(ratelimit.Config{})
	require.NoError(t, err)
	h := mw(okHandler())
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(h))
	}
}

func TestMiddlewareRejectsBadRate(t *testing.T) {
	_, err := ratelimit.Middleware(ratelimit.Config{Rate: "lots"})
	require.Error(t, err)
}

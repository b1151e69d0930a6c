package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/common"
	"github.com/noah-isme/pos-checkout/internal/resilience"
)

func TestIdemRejectsReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func(path, key string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("/api/v1/checkouts/1/scan", "k1"))
	require.Equal(t, http.StatusConflict, send("/api/v1/checkouts/1/scan", "k1"))
	require.Equal(t, http.StatusOK, send("/api/v1/checkouts/2/scan", "k1"))
	require.Equal(t, http.StatusOK, send("/api/v1/checkouts/1/scan", ""))
	require.Equal(t, http.StatusOK, send("/api/v1/checkouts/1/scan", ""))
	require.Equal(t, 4, calls)

	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusOK, send("/api/v1/checkouts/1/scan", "k1"))
}

func TestIdemWithoutRedisPassesThrough(t *testing.T) {
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Idempotency-Key", "k")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestIdemStoreFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	send := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts/1/scan", nil)
		req.Header.Set("Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	strict := common.Idem{R: client}.Middleware(ok)
	require.Equal(t, http.StatusInternalServerError, send(strict))

	breaker := resilience.NewBreaker("redis", 1, 0.5, time.Minute)
	guarded := common.Idem{R: client, Breaker: breaker}.Middleware(ok)
	require.Equal(t, http.StatusOK, send(guarded))
	require.Equal(t, resilience.Open, breaker.State())
	require.Equal(t, http.StatusOK, send(guarded))
}

package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/resilience"
)

// Idem rejects replays of write requests carrying the same Idempotency-Key.
// Keys are scoped to method and path so one key cannot block another route.
// With a Breaker, store failures let the request through undeduplicated
// instead of failing it.
type Idem struct {
	R       redis.UniversalClient
	TTL     time.Duration
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

func idemKey(r *http.Request, header string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + "\n" + header))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ok, err := i.claim(r.Context(), idemKey(r, header))
		if err != nil {
			if i.Breaker != nil {
				i.Logger.Warn().Err(err).Msg("idempotency store unavailable; serving without dedupe")
				next.ServeHTTP(w, r)
				return
			}
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (i Idem) claim(ctx context.Context, key string) (bool, error) {
	if i.Breaker == nil {
		return i.R.SetNX(ctx, key, "locked", i.ttl()).Result()
	}
	var ok bool
	err := i.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		ok, err = i.R.SetNX(ctx, key, "locked", i.ttl()).Result()
		return err
	})
	return ok, err
}

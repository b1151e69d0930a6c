package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const storePrefix = "pos-checkout:ratelimit"

// Config selects the rate and backing store. Rate uses limiter's formatted
// notation, e.g. "600-M". A nil Redis client keeps counters in process memory.
type Config struct {
	Rate  string
	Redis *redis.Client
}

// Middleware builds per-client-IP rate limiting middleware. An empty rate
// disables limiting.
func Middleware(cfg Config) (func(http.Handler) http.Handler, error) {
	formatted := strings.TrimSpace(cfg.Rate)
	if formatted == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	var store limiter.Store
	if cfg.Redis != nil {
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{Prefix: storePrefix})
		if err != nil {
			return nil, fmt.Errorf("redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: storePrefix})
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate))
	return mw.Handler, nil
}

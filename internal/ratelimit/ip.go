package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// NewIPMiddleware returns a fixed-window per-IP limiter for unauthenticated
// endpoints. rate uses the "<limit>-<period>" format, e.g. "20-M". The store
// is Redis when client is set and process memory otherwise. Requests are
// keyed by RemoteAddr only; forwarding headers are resolved earlier by
// security.RealIP for trusted proxies.
func NewIPMiddleware(rate string, client *redis.Client, prefix string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}
	var store limiter.Store
	if client != nil {
		store, err = limiterredis.NewStoreWithOptions(client, opts)
		if err != nil {
			return nil, fmt.Errorf("limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}

	instance := limiter.New(store, parsed, limiter.WithTrustForwardHeader(false))
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
		}),
	)
	return mw.Handler, nil
}

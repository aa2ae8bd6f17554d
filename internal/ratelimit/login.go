package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLoginLimiter builds middleware throttling admin login attempts per
// client IP. Counters live in Redis so the limit holds across restarts.
func NewLoginLimiter(client *redis.Client, maxAttempts int64, window time.Duration) (func(http.Handler) http.Handler, error) {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "catalog:ratelimit:login",
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	instance := limiter.New(store, limiter.Rate{Period: window, Limit: maxAttempts})
	middleware := mhttp.NewMiddleware(instance)
	return middleware.Handler, nil
}

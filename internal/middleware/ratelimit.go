package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

type rateWindow struct {
	count int64
	reset time.Duration
}

// RateLimitMiddleware applies a fixed-window limit kept in Redis. Requests are
// counted per authenticated register, or per client address before sign-in.
// When Redis cannot be reached the request is let through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := rateLimitClient(r)
			key := fmt.Sprintf("%s:%s", config.KeyPrefix, clientID)

			window, err := countRequest(r.Context(), redisClient, key, config.Window)
			if err != nil {
				logger.Error("Rate limit check failed, allowing request",
					zap.String("key", key),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(config.RequestsPerWindow) - window.count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window.reset).Unix(), 10))

			if window.count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.Int64("count", window.count),
					zap.Int("limit", config.RequestsPerWindow),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.reset.Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitClient(r *http.Request) string {
	if registerID, ok := GetRegisterID(r.Context()); ok {
		return "register:" + strconv.Itoa(registerID)
	}
	return "addr:" + r.RemoteAddr
}

// countRequest opens the window on first use and counts one request in a
// single MULTI so the counter can never outlive its expiry
func countRequest(ctx context.Context, client *redis.Client, key string, window time.Duration) (rateWindow, error) {
	pipe := client.TxPipeline()
	pipe.SetNX(ctx, key, 0, window)
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return rateWindow{}, err
	}

	reset := ttl.Val()
	if reset <= 0 {
		reset = window
	}
	return rateWindow{count: incr.Val(), reset: reset}, nil
}

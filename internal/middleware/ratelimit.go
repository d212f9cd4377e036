package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds fixed-window rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
	// KeyFunc identifies the client, ClientKey when nil
	KeyFunc func(r *http.Request) string
}

// ClientKey identifies a client by browser session, falling back to the remote address
func ClientKey(r *http.Request) string {
	if sid := SessionID(r.Context()); sid != "" {
		return sid
	}
	return r.RemoteAddr
}

// MemberClientKey scopes ClientKey to the member in the route
func MemberClientKey(r *http.Request) string {
	return chi.URLParam(r, MemberParam) + ":" + ClientKey(r)
}

// RateLimitMiddleware counts requests per client in a fixed Redis window.
// When Redis is unavailable requests are let through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientKey
	}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := keyFunc(r)
			key := config.KeyPrefix + ":" + clientID

			// INCR and EXPIRE NX in one round trip so a window always ends
			var incr *redis.IntCmd
			var ttl *redis.DurationCmd
			_, err := redisClient.TxPipelined(r.Context(), func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(r.Context(), key)
				pipe.ExpireNX(r.Context(), key, config.Window)
				ttl = pipe.PTTL(r.Context(), key)
				return nil
			})
			if err != nil {
				logger.Error("Failed to update rate limit counter", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			count := incr.Val()
			reset := ttl.Val()
			if reset <= 0 {
				reset = config.Window
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			if count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.String("path", r.URL.Path),
					zap.Int64("count", count),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int((reset+time.Second-1)/time.Second)))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

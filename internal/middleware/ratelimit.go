package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pulsechat/pulse-backend/internal/database"
)

const (
	// RateLimitWindow is the sliding window for the global per-IP limiter.
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests per window.
	RateLimitMaxRequests = 100
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting.
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs.
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked.
	BlockedIPDuration = 24 * time.Hour

	// Login gets a much tighter budget to slow credential stuffing.
	loginWindow      = 5 * time.Minute
	loginMaxRequests = 10
)

// RateLimitMiddleware provides per-IP rate limiting with temporary IP
// blocking. If Redis is unreachable the request is allowed (fail open).
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := r.Context()

		blockedKey := BlockedIPKeyPrefix + ip
		if blocked, err := database.RedisClient.Exists(ctx, blockedKey).Result(); err == nil && blocked > 0 {
			tooManyRequests(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.", BlockedIPDuration)
			return
		}

		count, err := incrWithWindow(ctx, RateLimitKeyPrefix+ip, RateLimitWindow)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if count > RateLimitMaxRequests {
			_ = database.RedisClient.Set(ctx, blockedKey, "1", BlockedIPDuration).Err()
			tooManyRequests(w, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.", RateLimitWindow)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(RateLimitMaxRequests-count))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(RateLimitWindow).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit wraps the login handler with a stricter per-IP window.
// Exceeding it does not block the IP globally, it only refuses logins until
// the window passes.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		count, err := incrWithWindow(r.Context(), RateLimitKeyPrefix+"login:"+ip, loginWindow)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count > loginMaxRequests {
			tooManyRequests(w, "Too many login attempts. Please try again later.", loginWindow)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// incrWithWindow bumps a Redis counter, starting the TTL window on first hit.
func incrWithWindow(ctx context.Context, key string, window time.Duration) (int, error) {
	count, err := database.RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		database.RedisClient.Expire(ctx, key, window)
	}
	return int(count), nil
}

func tooManyRequests(w http.ResponseWriter, msg string, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"success":false,"message":%q,"retry_after":%d}`, msg, int(retryAfter.Seconds()))
}

// clientIP extracts the client address, preferring proxy headers when set.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

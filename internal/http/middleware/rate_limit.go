package middleware

import (
	"net"
	"net/http"

	"github.com/rogerio-castellano/stockroom/internal/http/rate_limiter"
)

// RateLimit answers 429 once a client exceeds its token bucket. Clients are
// keyed by remote IP; put chi's RealIP in front when behind a proxy.
func RateLimit(limiter *rate_limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

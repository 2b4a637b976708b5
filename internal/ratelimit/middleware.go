package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
)

// ClientKey identifies the caller by remote host. chi's RealIP middleware,
// when installed first, has already applied forwarding headers.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware returns chi-style middleware that limits each client. Requests
// over the limit get a Retry-After hint and are passed to reject, or answered
// with a bare 429 when reject is nil.
func (krl *KeyedRateLimiter) Middleware(reject http.Handler) func(http.Handler) http.Handler {
	retryAfter := "1"
	if krl.limit > 0 && krl.limit < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(krl.limit))))
	}
	if reject == nil {
		reject = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !krl.Allow(ClientKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				reject.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

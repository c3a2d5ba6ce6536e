// internal/ratelimit/middleware.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/metrics"
)

// Middleware wraps an http.Handler with the rate-limit check. Denied
// requests get 429 with a Retry-After derived from the window reset;
// deny-listed clients get 403.
func (l *Limiter) Middleware(errHandler *apperrors.ErrorHandler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ClientID(r)
		endpoint := r.URL.Path

		result, err := l.Check(r.Context(), clientID, endpoint)
		if err != nil {
			// Never let the limiter's own failure reject traffic.
			next.ServeHTTP(w, r)
			return
		}

		if result.Allowed {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}
			next.ServeHTTP(w, r)
			return
		}

		metrics.RateLimitDenied.WithLabelValues(endpoint, result.Reason).Inc()

		if result.Reason == ReasonDenyListed {
			errHandler.WriteError(w, apperrors.NewClientBlockedError(clientID))
			return
		}

		retryAfter := int(result.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		errHandler.WriteError(w, apperrors.NewRateLimitExceededError(endpoint, result.RetryAfter))
	})
}

// ClientID resolves the client identity for limiting: the first
// X-Forwarded-For hop when present, else the remote address.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"convertly-api/internal/pkg/errors"
	"convertly-api/internal/ratelimit"
	"convertly-api/internal/services"
)

// checkDeadline bounds the admission check itself, not the request body. A
// slow counter store resolves via the engine's fail mode instead of stalling
// the request.
const checkDeadline = 2 * time.Second

// RateLimit admits or denies the request under the named policy before the
// handler runs. Denials get a 429 carrying Retry-After.
func RateLimit(engine *ratelimit.Engine, policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := services.UserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), checkDeadline)
			defer cancel()

			decision, err := engine.CheckAndConsume(ctx, user.ID, policy)
			if err != nil {
				if errors.Is(err, errors.ErrStoreUnavailable) {
					http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			setRateLimitHeaders(w, decision)

			if !decision.Admitted {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "Rate limit exceeded",
					"policy":      policy,
					"retry_after": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.Decision) {
	if decision.Limit.Unlimited() {
		return
	}
	if decision.Limit.PermitLimit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit.PermitLimit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
}

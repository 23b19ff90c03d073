// internal/app/system/ratelimit/middleware.go
package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP under scope. The IP comes from
// proxies.ClientIP, so forwarding headers only count behind a trusted
// proxy. When the checker
// itself fails (e.g. Redis unreachable) the request is let through and the
// error logged.
func Middleware(c Checker, scope string, proxies Proxies, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := proxies.ClientIP(r)
			key := scope + ":" + ip
			d, err := c.Take(r.Context(), key)
			if err != nil {
				logger.Warn("rate limit check failed; allowing request",
					zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.Info("rate limited",
					zap.String("scope", scope), zap.String("ip", ip))
				respond.Error(w, r, logger, apperr.RateLimited("Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

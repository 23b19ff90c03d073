// internal/app/features/auth/routes.go
package auth

import (
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes mounts under /api/auth. limiter guards register and login per
// client IP; pass nil to disable. proxies decides when forwarding headers
// name the client.
func Routes(h *Handler, limiter ratelimit.Checker, proxies ratelimit.Proxies, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		if limiter != nil {
			pr.Use(ratelimit.Middleware(limiter, "auth", proxies, logger))
		}
		pr.Post("/register", h.HandleRegister)
		pr.Post("/login", h.HandleLogin)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireBearer(logger))
		pr.Get("/me", h.ServeMe)
	})

	return r
}

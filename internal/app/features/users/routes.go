// internal/app/features/users/routes.go
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users. requireAuth verifies the bearer token.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Get("/search", h.ServeSearch)
	r.Get("/{id}", h.ServeUser)
	return r
}

// internal/app/features/comments/routes.go
package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/comments.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

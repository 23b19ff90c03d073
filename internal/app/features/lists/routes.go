// internal/app/features/lists/routes.go
package lists

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/lists.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/", h.HandleCreate)
	r.Post("/reorder", h.HandleReorder)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

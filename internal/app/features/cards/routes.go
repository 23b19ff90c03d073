// internal/app/features/cards/routes.go
package cards

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/cards.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/", h.HandleCreate)
	r.Post("/move", h.HandleMove)
	r.Get("/board/{boardId}/status/{status}", h.ServeByStatus)
	r.Get("/{id}", h.ServeCard)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

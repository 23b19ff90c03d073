// internal/app/features/boards/routes.go
package boards

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/boards.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeBoard)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	// MEMBERS
	r.Post("/{id}/members", h.HandleAddMember)
	r.Delete("/{id}/members/{memberId}", h.HandleRemoveMember)
	return r
}

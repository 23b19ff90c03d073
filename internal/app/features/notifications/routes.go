// internal/app/features/notifications/routes.go
package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/notifications.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Get("/", h.ServeList)
	r.Get("/unread", h.ServeUnread)
	r.Post("/mark-read", h.HandleMarkRead)
	r.Post("/mark-all-read", h.HandleMarkAllRead)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

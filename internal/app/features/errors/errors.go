// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Handler renders the router's fallback responses in the API's JSON error shape.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers any unmatched route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, h.Log, apperr.NotFound("Route not found"))
}

// MethodNotAllowed answers a known route hit with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, map[string]string{
		"status":  "failed",
		"message": "Method not allowed",
	})
}

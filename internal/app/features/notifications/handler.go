// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	notificationstore "github.com/dalemusser/kanbanhub/internal/app/store/notifications"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/paging"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the caller's notification inbox.
type Handler struct {
	Store *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Store: notificationstore.New(db), Log: logger}
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Limit         int64                 `json:"limit"`
	Skip          int64                 `json:"skip"`
}

// ServeList handles GET /api/notifications?limit&skip.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.List(ctx, userID, page.Limit, page.Skip)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	total, err := h.Store.Count(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, listResponse{Notifications: items, Total: total, Limit: page.Limit, Skip: page.Skip})
}

// ServeUnread handles GET /api/notifications/unread.
func (h *Handler) ServeUnread(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.Unread(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, map[string]any{"notifications": items})
}

// HandleMarkRead handles POST /api/notifications/mark-read. Ids that do not
// belong to the caller are ignored.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req struct {
		NotificationIDs []string `json:"notificationIds"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.NotificationIDs == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Notification IDs array is required"))
		return
	}
	ids, err := shared.ParseIDs(req.NotificationIDs)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	if _, err := h.Store.MarkRead(ctx, userID, ids); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, map[string]string{"message": "Notifications marked as read"})
}

// HandleMarkAllRead handles POST /api/notifications/mark-all-read.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	if _, err := h.Store.MarkAllRead(ctx, userID); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, map[string]string{"message": "All notifications marked as read"})
}

// HandleDelete handles DELETE /api/notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	n, err := h.Store.Delete(ctx, userID, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("Notification not found"))
		return
	}
	respond.OK(w, map[string]string{"message": "Notification deleted successfully"})
}

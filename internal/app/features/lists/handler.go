// internal/app/features/lists/handler.go
package lists

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves list CRUD and batch reorder.
type Handler struct {
	Engine *kanban.Engine
	Log    *zap.Logger
}

func NewHandler(engine *kanban.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

// HandleCreate handles POST /api/lists.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req struct {
		BoardID string `json:"boardId"`
		Title   string `json:"title"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.BoardID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Board ID and title are required"))
		return
	}
	boardID, err := shared.ParseID(req.BoardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	l, err := h.Engine.CreateList(ctx, userID, boardID, req.Title)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, map[string]any{"list": l})
}

// HandleUpdate handles PUT /api/lists/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	listID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req struct {
		Title *string `json:"title"`
		Order *int    `json:"order"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	l, err := h.Engine.UpdateList(ctx, userID, listID, kanban.ListPatch{Title: req.Title, Order: req.Order})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"list": l})
}

// HandleDelete handles DELETE /api/lists/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	listID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Long(), h.Log, "list cascade delete")
	defer cancel()

	if err := h.Engine.DeleteList(ctx, userID, listID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"message": "List deleted successfully"})
}

type orderItem struct {
	ListID string `json:"listId"`
	Order  int    `json:"order"`
}

// HandleReorder handles POST /api/lists/reorder.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req struct {
		BoardID    string      `json:"boardId"`
		ListOrders []orderItem `json:"listOrders"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.BoardID == "" || req.ListOrders == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Board ID and list orders array are required"))
		return
	}
	boardID, err := shared.ParseID(req.BoardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	orders := make([]kanban.ListOrder, 0, len(req.ListOrders))
	for _, o := range req.ListOrders {
		var id primitive.ObjectID
		if id, err = shared.ParseID(o.ListID); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		orders = append(orders, kanban.ListOrder{ListID: id, Order: o.Order})
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	if err := h.Engine.ReorderLists(ctx, userID, boardID, orders); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"message": "Lists reordered successfully"})
}

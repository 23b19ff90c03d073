// internal/app/features/comments/handler.go
package comments

import (
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Engine *kanban.Engine
	Log    *zap.Logger
}

func NewHandler(engine *kanban.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type createRequest struct {
	CardID string `json:"cardId"`
	Text   string `json:"text"`
}

type updateRequest struct {
	Text string `json:"text"`
}

// HandleCreate handles POST /api/comments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.CardID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Card ID and text are required"))
		return
	}
	cardID, err := shared.ParseID(req.CardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	comment, err := h.Engine.CreateComment(ctx, userID, cardID, req.Text)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, map[string]any{"comment": comment})
}

// HandleUpdate handles PUT /api/comments/{id}. Only the author may edit.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	commentID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	comment, err := h.Engine.UpdateComment(ctx, userID, commentID, req.Text)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"comment": comment})
}

// HandleDelete handles DELETE /api/comments/{id}. Only the author may delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	commentID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	if err := h.Engine.DeleteComment(ctx, userID, commentID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"message": "Comment deleted successfully"})
}

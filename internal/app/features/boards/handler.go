// internal/app/features/boards/handler.go
package boards

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves board CRUD and membership.
type Handler struct {
	Engine *kanban.Engine
	Log    *zap.Logger
}

func NewHandler(engine *kanban.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Labels      *[]models.Label `json:"labels"`
}

// ServeList handles GET /api/boards.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	boards, err := h.Engine.ListBoards(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"boards": boards})
}

// ServeBoard handles GET /api/boards/{id}.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	detail, err := h.Engine.GetBoard(ctx, userID, boardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, detail)
}

// HandleCreate handles POST /api/boards.
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
	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	b, err := h.Engine.CreateBoard(ctx, userID, kanban.BoardInput{Title: req.Title, Description: req.Description})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, map[string]any{"board": b})
}

// HandleUpdate handles PUT /api/boards/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "id")
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

	b, err := h.Engine.UpdateBoard(ctx, userID, boardID, kanban.BoardPatch{
		Title:       req.Title,
		Description: req.Description,
		Labels:      req.Labels,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"board": b})
}

// HandleDelete handles DELETE /api/boards/{id}. Only the owner may delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Long(), h.Log, "board cascade delete")
	defer cancel()

	if err := h.Engine.DeleteBoard(ctx, userID, boardID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"message": "Board deleted successfully"})
}

// HandleAddMember handles POST /api/boards/{id}/members.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req struct {
		MemberID string `json:"memberId"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.MemberID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Member ID is required"))
		return
	}
	memberID, err := shared.ParseID(req.MemberID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	b, err := h.Engine.AddMember(ctx, userID, boardID, memberID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"board": b})
}

// HandleRemoveMember handles DELETE /api/boards/{id}/members/{memberId}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	memberID, err := shared.PathID(r, "memberId")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	b, err := h.Engine.RemoveMember(ctx, userID, boardID, memberID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"board": b})
}

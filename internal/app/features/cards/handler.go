// internal/app/features/cards/handler.go
package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves card CRUD, moves, and the by-status query.
type Handler struct {
	Engine *kanban.Engine
	Log    *zap.Logger
}

func NewHandler(engine *kanban.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type createRequest struct {
	BoardID     string  `json:"boardId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ListID      *string `json:"listId"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

// updateRequest distinguishes an absent dueDate from an explicit null,
// which clears it.
type updateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	Order       *int            `json:"order"`
	ListID      *string         `json:"listId"`
	Assignees   *[]string       `json:"assignees"`
	Labels      *[]string       `json:"labels"`
	DueDate     json.RawMessage `json:"dueDate"`
}

type moveRequest struct {
	CardID    string  `json:"cardId"`
	NewListID *string `json:"newListId"`
	NewOrder  *int    `json:"newOrder"`
	Status    string  `json:"status"`
}

// HandleCreate handles POST /api/cards.
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
	if req.BoardID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Title and board ID are required"))
		return
	}
	boardID, err := shared.ParseID(req.BoardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	listID, err := shared.OptionalID(req.ListID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	card, err := h.Engine.CreateCard(ctx, userID, kanban.CardInput{
		BoardID:     boardID,
		Title:       req.Title,
		Description: req.Description,
		ListID:      listID,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, map[string]any{"card": card})
}

// ServeCard handles GET /api/cards/{id}.
func (h *Handler) ServeCard(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	cardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	card, err := h.Engine.GetCard(ctx, userID, cardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"card": card})
}

// HandleUpdate handles PUT /api/cards/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	cardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	card, err := h.Engine.UpdateCard(ctx, userID, cardID, patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"card": card})
}

func (req updateRequest) patch() (kanban.CardPatch, error) {
	p := kanban.CardPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Order:       req.Order,
		Labels:      req.Labels,
	}
	listID, err := shared.OptionalID(req.ListID)
	if err != nil {
		return p, err
	}
	p.ListID = listID

	if req.Assignees != nil {
		ids, err := shared.ParseIDs(*req.Assignees)
		if err != nil {
			return p, err
		}
		p.Assignees = &ids
	}

	switch raw := bytes.TrimSpace(req.DueDate); {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		p.ClearDueDate = true
	default:
		var due time.Time
		if err := json.Unmarshal(raw, &due); err != nil {
			return p, apperr.Validation("Invalid due date")
		}
		due = due.UTC()
		p.DueDate = &due
	}
	return p, nil
}

// HandleDelete handles DELETE /api/cards/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	cardID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	if err := h.Engine.DeleteCard(ctx, userID, cardID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"message": "Card deleted successfully"})
}

// HandleMove handles POST /api/cards/move.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req moveRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.CardID == "" || req.NewOrder == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Card ID and new order are required"))
		return
	}
	cardID, err := shared.ParseID(req.CardID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	newListID, err := shared.OptionalID(req.NewListID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Medium())
	defer cancel()

	card, err := h.Engine.MoveCard(ctx, userID, kanban.MoveInput{
		CardID:    cardID,
		NewListID: newListID,
		NewOrder:  req.NewOrder,
		Status:    req.Status,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"card": card})
}

// ServeByStatus handles GET /api/cards/board/{boardId}/status/{status}.
func (h *Handler) ServeByStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	boardID, err := shared.PathID(r, "boardId")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tasks, err := h.Engine.TasksByStatus(ctx, userID, boardID, chi.URLParam(r, "status"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"tasks": tasks})
}


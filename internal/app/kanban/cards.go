package kanban

import (
	"context"
	"time"

	cardstore "github.com/dalemusser/kanbanhub/internal/app/store/cards"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CardInput is the payload for CreateCard. Empty Status and Priority take
// their defaults.
type CardInput struct {
	BoardID     primitive.ObjectID
	Title       string
	Description string
	ListID      *primitive.ObjectID
	Status      string
	Priority    string
}

// CardPatch is a partial card update. Assignees and Labels replace the
// whole set when supplied.
type CardPatch struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	Order        *int
	ListID       *primitive.ObjectID
	Assignees    *[]primitive.ObjectID
	Labels       *[]string
	DueDate      *time.Time
	ClearDueDate bool
}

// MoveInput is the payload for MoveCard. NewOrder is required.
type MoveInput struct {
	CardID    primitive.ObjectID
	NewListID *primitive.ObjectID
	NewOrder  *int
	Status    string
}

// CreateCard adds a card to a board. The target list is the explicit
// ListID, else the list matching Status by title, else the board's first
// list. Order is one past the highest in that list, or in the board's
// cards of the same status when the board has no lists.
func (e *Engine) CreateCard(ctx context.Context, userID primitive.ObjectID, in CardInput) (models.CardView, error) {
	title := cleanTitle(in.Title)
	if title == "" || in.BoardID.IsZero() {
		return models.CardView{}, apperr.Validation("Title and board ID are required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	if !models.IsValidStatus(status) {
		return models.CardView{}, apperr.Validation("Invalid status")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return models.CardView{}, apperr.Validation("Invalid priority")
	}

	if _, err := e.accessibleBoard(ctx, userID, in.BoardID); err != nil {
		return models.CardView{}, err
	}

	var target *models.List
	if in.ListID != nil {
		l, err := e.listInBoard(ctx, in.BoardID, *in.ListID)
		if err != nil {
			return models.CardView{}, err
		}
		target = &l
	} else {
		lists, err := e.lists.ListByBoard(ctx, in.BoardID)
		if err != nil {
			return models.CardView{}, apperr.Internal(err)
		}
		if in.Status != "" {
			if l, ok := FindListForStatus(lists, in.Status); ok {
				target = &l
			}
		}
	}

	var (
		top   int
		found bool
		err   error
	)
	if target != nil {
		top, found, err = e.cards.MaxOrderInList(ctx, target.ID)
	} else {
		top, found, err = e.cards.MaxOrderInStatus(ctx, in.BoardID, status)
	}
	if err != nil {
		return models.CardView{}, apperr.Internal(err)
	}
	order := 0
	if found {
		order = top + 1
	}

	card := models.Card{
		Title:       title,
		Description: htmlsanitize.Clean(in.Description),
		BoardID:     in.BoardID,
		Order:       order,
		Status:      status,
		Priority:    priority,
		CreatedBy:   userID,
	}
	if target != nil {
		card.ListID = &target.ID
	}

	card, err = e.cards.Create(ctx, card)
	if err != nil {
		return models.CardView{}, apperr.Internal(err)
	}
	if target != nil {
		if err := e.lists.AddCard(ctx, target.ID, card.ID); err != nil {
			return models.CardView{}, apperr.Internal(err)
		}
	}
	return e.cardView(ctx, card)
}

// GetCard returns a card with assignees and comments expanded, newest
// comment first.
func (e *Engine) GetCard(ctx context.Context, userID, cardID primitive.ObjectID) (models.CardView, error) {
	card, err := e.accessibleCard(ctx, userID, cardID)
	if err != nil {
		return models.CardView{}, err
	}
	view, err := e.cardView(ctx, card)
	if err != nil {
		return models.CardView{}, err
	}
	comments, err := e.comments.ListByCard(ctx, cardID)
	if err != nil {
		return models.CardView{}, apperr.Internal(err)
	}
	view.Comments, err = e.commentViews(ctx, comments)
	if err != nil {
		return models.CardView{}, err
	}
	return view, nil
}

// UpdateCard applies p to a card. Supplied fields overwrite, with two list
// side effects evaluated in order: a status change moves the card into the
// list whose title matches the new status, if any; then an explicit ListID
// different from the (possibly just updated) list moves it there.
func (e *Engine) UpdateCard(ctx context.Context, userID, cardID primitive.ObjectID, p CardPatch) (models.CardView, error) {
	card, err := e.accessibleCard(ctx, userID, cardID)
	if err != nil {
		return models.CardView{}, err
	}

	u := cardstore.Update{
		Order:        p.Order,
		Assignees:    p.Assignees,
		Labels:       p.Labels,
		DueDate:      p.DueDate,
		ClearDueDate: p.ClearDueDate,
	}
	if p.Title != nil {
		title := cleanTitle(*p.Title)
		if title == "" {
			return models.CardView{}, apperr.Validation("Card title cannot be empty")
		}
		u.Title = &title
	}
	if p.Description != nil {
		desc := htmlsanitize.Clean(*p.Description)
		u.Description = &desc
	}
	if p.Status != nil {
		if !models.IsValidStatus(*p.Status) {
			return models.CardView{}, apperr.Validation("Invalid status")
		}
		u.Status = p.Status
	}
	if p.Priority != nil {
		if !models.IsValidPriority(*p.Priority) {
			return models.CardView{}, apperr.Validation("Invalid priority")
		}
		u.Priority = p.Priority
	}

	var explicit *models.List
	if p.ListID != nil {
		l, err := e.listInBoard(ctx, card.BoardID, *p.ListID)
		if err != nil {
			return models.CardView{}, err
		}
		explicit = &l
	}

	current, moved := card.ListID, false
	if p.Status != nil && *p.Status != card.Status {
		lists, err := e.lists.ListByBoard(ctx, card.BoardID)
		if err != nil {
			return models.CardView{}, apperr.Internal(err)
		}
		if l, ok := FindListForStatus(lists, *p.Status); ok && !sameList(current, l.ID) {
			if err := e.relocate(ctx, card.ID, current, l.ID); err != nil {
				return models.CardView{}, err
			}
			current, moved = &l.ID, true
		}
	}
	if explicit != nil && !sameList(current, explicit.ID) {
		if err := e.relocate(ctx, card.ID, current, explicit.ID); err != nil {
			return models.CardView{}, err
		}
		current, moved = &explicit.ID, true
	}
	if moved {
		u.ListID = current
	}

	updated, err := e.cards.Update(ctx, cardID, u)
	if err != nil {
		return models.CardView{}, storeErr(err, msgCardNotFound)
	}

	if p.Assignees != nil {
		if added := newIDs(card.Assignees, *p.Assignees); len(added) > 0 {
			e.notify.CardAssigned(userID, updated, added)
		}
	}
	return e.cardView(ctx, updated)
}

// DeleteCard removes a card, its comments, and its entry in its list.
func (e *Engine) DeleteCard(ctx context.Context, userID, cardID primitive.ObjectID) error {
	card, err := e.accessibleCard(ctx, userID, cardID)
	if err != nil {
		return err
	}
	if card.ListID != nil {
		if err := e.lists.RemoveCard(ctx, *card.ListID, cardID); err != nil {
			return apperr.Internal(err)
		}
	}
	if _, err := e.comments.DeleteByCards(ctx, []primitive.ObjectID{cardID}); err != nil {
		return apperr.Internal(err)
	}
	if _, err := e.cards.Delete(ctx, cardID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// MoveCard repositions a card. A changed status moves it to NewListID if
// given, else to the list matching the status; an unchanged status with
// NewListID is a plain list move. Order is always set to NewOrder.
func (e *Engine) MoveCard(ctx context.Context, userID primitive.ObjectID, in MoveInput) (models.CardView, error) {
	if in.CardID.IsZero() || in.NewOrder == nil {
		return models.CardView{}, apperr.Validation("Card ID and new order are required")
	}
	if in.Status != "" && !models.IsValidStatus(in.Status) {
		return models.CardView{}, apperr.Validation("Invalid status")
	}

	card, err := e.accessibleCard(ctx, userID, in.CardID)
	if err != nil {
		return models.CardView{}, err
	}

	var target *models.List
	if in.NewListID != nil {
		l, err := e.listInBoard(ctx, card.BoardID, *in.NewListID)
		if err != nil {
			return models.CardView{}, err
		}
		target = &l
	}

	u := cardstore.Update{Order: in.NewOrder}
	if in.Status != "" && in.Status != card.Status {
		u.Status = &in.Status
		if target == nil {
			lists, err := e.lists.ListByBoard(ctx, card.BoardID)
			if err != nil {
				return models.CardView{}, apperr.Internal(err)
			}
			if l, ok := FindListForStatus(lists, in.Status); ok {
				target = &l
			}
		}
	}
	if target != nil && !sameList(card.ListID, target.ID) {
		if err := e.relocate(ctx, card.ID, card.ListID, target.ID); err != nil {
			return models.CardView{}, err
		}
		u.ListID = &target.ID
	}

	updated, err := e.cards.Update(ctx, card.ID, u)
	if err != nil {
		return models.CardView{}, storeErr(err, msgCardNotFound)
	}
	return e.cardView(ctx, updated)
}

// TasksByStatus returns a board's cards with the given status, by order.
func (e *Engine) TasksByStatus(ctx context.Context, userID, boardID primitive.ObjectID, status string) ([]models.CardView, error) {
	if _, err := e.accessibleBoard(ctx, userID, boardID); err != nil {
		return nil, err
	}
	if !models.IsValidStatus(status) {
		return nil, apperr.Validation("Invalid status")
	}
	cards, err := e.cards.ListByBoardStatus(ctx, boardID, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e.cardViews(ctx, cards)
}

// relocate pulls cardID from its old list, if any, and adds it to the new
// one. Both are single atomic array updates.
func (e *Engine) relocate(ctx context.Context, cardID primitive.ObjectID, from *primitive.ObjectID, to primitive.ObjectID) error {
	if from != nil && *from != to {
		if err := e.lists.RemoveCard(ctx, *from, cardID); err != nil {
			return apperr.Internal(err)
		}
	}
	if err := e.lists.AddCard(ctx, to, cardID); err != nil {
		return apperr.Internal(err)
	}
	e.log.Debug("card relocated",
		zap.String("card_id", cardID.Hex()), zap.String("list_id", to.Hex()))
	return nil
}

func sameList(current *primitive.ObjectID, id primitive.ObjectID) bool {
	return current != nil && *current == id
}

// newIDs returns ids in next that are not in prev.
func newIDs(prev, next []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(prev))
	for _, id := range prev {
		seen[id] = true
	}
	var out []primitive.ObjectID
	for _, id := range next {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

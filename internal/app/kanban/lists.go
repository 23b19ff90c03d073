package kanban

import (
	"context"

	liststore "github.com/dalemusser/kanbanhub/internal/app/store/lists"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/txn"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListPatch is a partial list update.
type ListPatch struct {
	Title *string
	Order *int
}

// ListOrder assigns an order to one list in a reorder batch.
type ListOrder struct {
	ListID primitive.ObjectID `json:"listId"`
	Order  int                `json:"order"`
}

// CreateList appends a list to a board. Its order is one past the board's
// current highest, or 0 on an empty board.
func (e *Engine) CreateList(ctx context.Context, userID, boardID primitive.ObjectID, title string) (models.List, error) {
	title = cleanTitle(title)
	if boardID.IsZero() || title == "" {
		return models.List{}, apperr.Validation("Board ID and title are required")
	}
	if _, err := e.accessibleBoard(ctx, userID, boardID); err != nil {
		return models.List{}, err
	}

	order := 0
	top, found, err := e.lists.MaxOrder(ctx, boardID)
	if err != nil {
		return models.List{}, apperr.Internal(err)
	}
	if found {
		order = top + 1
	}

	l, err := e.lists.Create(ctx, models.List{Title: title, BoardID: boardID, Order: order})
	if err != nil {
		return models.List{}, apperr.Internal(err)
	}
	if err := e.boards.AddList(ctx, boardID, l.ID); err != nil {
		return models.List{}, apperr.Internal(err)
	}
	return l, nil
}

// UpdateList applies p to a list on a board userID can access.
func (e *Engine) UpdateList(ctx context.Context, userID, listID primitive.ObjectID, p ListPatch) (models.List, error) {
	if _, err := e.accessibleList(ctx, userID, listID); err != nil {
		return models.List{}, err
	}
	var u liststore.Update
	if p.Title != nil {
		title := cleanTitle(*p.Title)
		if title == "" {
			return models.List{}, apperr.Validation("List title cannot be empty")
		}
		u.Title = &title
	}
	u.Order = p.Order

	l, err := e.lists.Update(ctx, listID, u)
	if err != nil {
		return models.List{}, storeErr(err, msgListNotFound)
	}
	return l, nil
}

// DeleteList removes a list, its cards and their comments, and drops the
// list from its board.
func (e *Engine) DeleteList(ctx context.Context, userID, listID primitive.ObjectID) error {
	l, err := e.accessibleList(ctx, userID, listID)
	if err != nil {
		return err
	}

	err = txn.Run(ctx, e.client, e.log, func(ctx context.Context) error {
		cardIDs, err := e.cards.IDsByList(ctx, listID)
		if err != nil {
			return err
		}
		if _, err := e.comments.DeleteByCards(ctx, cardIDs); err != nil {
			return err
		}
		if _, err := e.cards.DeleteByList(ctx, listID); err != nil {
			return err
		}
		if err := e.boards.PullList(ctx, l.BoardID, listID); err != nil {
			return err
		}
		_, err = e.lists.Delete(ctx, listID)
		return err
	})
	if err != nil {
		e.log.Error("list cascade delete failed",
			zap.String("list_id", listID.Hex()), zap.String("board_id", l.BoardID.Hex()), zap.Error(err))
		return apperr.Internal(err)
	}
	return nil
}

// ReorderLists sets the order of each list in orders. Updates are applied
// independently; one failing does not undo the others. Lists that are not
// on the board are ignored.
func (e *Engine) ReorderLists(ctx context.Context, userID, boardID primitive.ObjectID, orders []ListOrder) error {
	if boardID.IsZero() || orders == nil {
		return apperr.Validation("Board ID and list orders array are required")
	}
	if _, err := e.accessibleBoard(ctx, userID, boardID); err != nil {
		return err
	}

	var firstErr error
	for _, o := range orders {
		if _, err := e.lists.SetOrder(ctx, boardID, o.ListID, o.Order); err != nil {
			e.log.Warn("list reorder step failed",
				zap.String("board_id", boardID.Hex()), zap.String("list_id", o.ListID.Hex()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return apperr.Internal(firstErr)
	}
	return nil
}

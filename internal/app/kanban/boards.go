package kanban

import (
	"context"
	"errors"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/kanbanhub/internal/app/system/normalize"
	"github.com/dalemusser/kanbanhub/internal/app/system/txn"
	boardstore "github.com/dalemusser/kanbanhub/internal/app/store/boards"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BoardInput is the payload for CreateBoard.
type BoardInput struct {
	Title       string
	Description string
}

// BoardPatch is a partial board update. Labels replaces the whole set.
type BoardPatch struct {
	Title       *string
	Description *string
	Labels      *[]models.Label
}

func cleanTitle(s string) string {
	return normalize.Title(htmlsanitize.StripTags(s))
}

// ListBoards returns the boards userID owns or belongs to, most recently
// updated first.
func (e *Engine) ListBoards(ctx context.Context, userID primitive.ObjectID) ([]models.BoardView, error) {
	boards, err := e.boards.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e.boardViews(ctx, boards)
}

// GetBoard returns a board with its lists sorted by order and each list's
// cards sorted by order.
func (e *Engine) GetBoard(ctx context.Context, userID, boardID primitive.ObjectID) (BoardDetail, error) {
	b, err := e.accessibleBoard(ctx, userID, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	view, err := e.boardView(ctx, b)
	if err != nil {
		return BoardDetail{}, err
	}
	lists, err := e.lists.ListByBoard(ctx, boardID)
	if err != nil {
		return BoardDetail{}, apperr.Internal(err)
	}
	cards, err := e.cards.ListByBoard(ctx, boardID)
	if err != nil {
		return BoardDetail{}, apperr.Internal(err)
	}
	cardViews, err := e.cardViews(ctx, cards)
	if err != nil {
		return BoardDetail{}, err
	}
	return BoardDetail{Board: view, Lists: listViews(lists, cardViews)}, nil
}

// CreateBoard creates a board owned by userID, who becomes its only member.
func (e *Engine) CreateBoard(ctx context.Context, userID primitive.ObjectID, in BoardInput) (models.BoardView, error) {
	title := cleanTitle(in.Title)
	if title == "" {
		return models.BoardView{}, apperr.Validation("Board title is required")
	}
	b, err := e.boards.Create(ctx, models.Board{
		Title:       title,
		Description: htmlsanitize.Clean(in.Description),
		OwnerID:     userID,
	})
	if err != nil {
		return models.BoardView{}, apperr.Internal(err)
	}
	e.log.Info("board created", zap.String("board_id", b.ID.Hex()), zap.String("user_id", userID.Hex()))
	return e.boardView(ctx, b)
}

// UpdateBoard applies p to a board userID can access. Only supplied fields
// change.
func (e *Engine) UpdateBoard(ctx context.Context, userID, boardID primitive.ObjectID, p BoardPatch) (models.BoardView, error) {
	var u boardstore.Update
	if p.Title != nil {
		title := cleanTitle(*p.Title)
		if title == "" {
			return models.BoardView{}, apperr.Validation("Board title cannot be empty")
		}
		u.Title = &title
	}
	if p.Description != nil {
		desc := htmlsanitize.Clean(*p.Description)
		u.Description = &desc
	}
	if p.Labels != nil {
		labels, err := cleanLabels(*p.Labels)
		if err != nil {
			return models.BoardView{}, err
		}
		u.Labels = &labels
	}

	b, err := e.boards.Update(ctx, boardID, userID, u)
	if err != nil {
		return models.BoardView{}, storeErr(err, msgBoardNotFound)
	}
	return e.boardView(ctx, b)
}

// cleanLabels validates label definitions and assigns ids to new ones.
func cleanLabels(in []models.Label) ([]models.Label, error) {
	out := make([]models.Label, 0, len(in))
	for _, l := range in {
		name := cleanTitle(l.Name)
		if name == "" {
			return nil, apperr.Validation("Label name is required")
		}
		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.Label{ID: id, Name: name, Color: htmlsanitize.StripTags(l.Color)})
	}
	return out, nil
}

// DeleteBoard removes a board owned by userID together with its comments,
// cards, and lists. The cascade runs in a transaction when the deployment
// supports one; otherwise steps run in order and a failure leaves earlier
// deletions in place.
func (e *Engine) DeleteBoard(ctx context.Context, userID, boardID primitive.ObjectID) error {
	owner, err := e.gate.IsOwner(ctx, userID, boardID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !owner {
		return apperr.NotFound(msgNotBoardOwner)
	}

	err = txn.Run(ctx, e.client, e.log, func(ctx context.Context) error {
		cardIDs, err := e.cards.IDsByBoard(ctx, boardID)
		if err != nil {
			return err
		}
		if _, err := e.comments.DeleteByCards(ctx, cardIDs); err != nil {
			return err
		}
		if _, err := e.cards.DeleteByBoard(ctx, boardID); err != nil {
			return err
		}
		if _, err := e.lists.DeleteByBoard(ctx, boardID); err != nil {
			return err
		}
		_, err = e.boards.Delete(ctx, boardID)
		return err
	})
	if err != nil {
		e.log.Error("board cascade delete failed",
			zap.String("board_id", boardID.Hex()), zap.Error(err))
		return apperr.Internal(err)
	}
	e.log.Info("board deleted", zap.String("board_id", boardID.Hex()), zap.String("user_id", userID.Hex()))
	return nil
}

// AddMember adds memberID to a board userID can access. Adding an existing
// member is a Conflict.
func (e *Engine) AddMember(ctx context.Context, userID, boardID, memberID primitive.ObjectID) (models.BoardView, error) {
	if memberID.IsZero() {
		return models.BoardView{}, apperr.Validation("Member ID is required")
	}
	exists, err := e.users.Exists(ctx, memberID)
	if err != nil {
		return models.BoardView{}, apperr.Internal(err)
	}
	if !exists {
		return models.BoardView{}, apperr.NotFound(msgUserNotFound)
	}

	b, err := e.boards.AddMember(ctx, boardID, userID, memberID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either no access or already a member; tell them apart.
		ok, gerr := e.gate.CanAccess(ctx, userID, boardID)
		if gerr != nil {
			return models.BoardView{}, apperr.Internal(gerr)
		}
		if !ok {
			return models.BoardView{}, apperr.NotFound(msgBoardNotFound)
		}
		return models.BoardView{}, apperr.Conflict("User is already a member of this board")
	}
	if err != nil {
		return models.BoardView{}, apperr.Internal(err)
	}

	e.notify.MemberAdded(userID, memberID, b)
	return e.boardView(ctx, b)
}

// RemoveMember removes memberID from a board owned by userID. The caller's
// own id is pulled from members in the same update; ownership alone keeps
// their access.
func (e *Engine) RemoveMember(ctx context.Context, userID, boardID, memberID primitive.ObjectID) (models.BoardView, error) {
	if memberID.IsZero() {
		return models.BoardView{}, apperr.Validation("Member ID is required")
	}
	b, err := e.boards.RemoveMembers(ctx, boardID, userID, memberID, userID)
	if err != nil {
		return models.BoardView{}, storeErr(err, msgNotBoardOwner)
	}
	return e.boardView(ctx, b)
}

// Package kanban implements the board mutation operations: boards, lists,
// cards, and comments, with the cross-entity bookkeeping between them.
//
// Every operation takes the acting user's id and checks board access
// before writing. Board-level failures are reported as "Board not found";
// list, card, and comment failures as "Access denied". Errors are
// *apperr.Error values.
package kanban

import (
	"context"
	"errors"

	boardstore "github.com/dalemusser/kanbanhub/internal/app/store/boards"
	cardstore "github.com/dalemusser/kanbanhub/internal/app/store/cards"
	commentstore "github.com/dalemusser/kanbanhub/internal/app/store/comments"
	liststore "github.com/dalemusser/kanbanhub/internal/app/store/lists"
	userstore "github.com/dalemusser/kanbanhub/internal/app/store/users"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/authz"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgBoardNotFound   = "Board not found"
	msgNotBoardOwner   = "Board not found or you are not the owner"
	msgListNotFound    = "List not found"
	msgCardNotFound    = "Card not found"
	msgCommentNotFound = "Comment not found"
	msgUserNotFound    = "User not found"
	msgAccessDenied    = "Access denied"
)

// Notifier receives best-effort activity events. Implementations must not
// block the caller.
type Notifier interface {
	MemberAdded(actorID, memberID primitive.ObjectID, board models.Board)
	CardAssigned(actorID primitive.ObjectID, card models.Card, assignees []primitive.ObjectID)
	CommentMentions(authorID primitive.ObjectID, card models.Card, participants []primitive.ObjectID, text string)
}

type nopNotifier struct{}

func (nopNotifier) MemberAdded(primitive.ObjectID, primitive.ObjectID, models.Board) {}
func (nopNotifier) CardAssigned(primitive.ObjectID, models.Card, []primitive.ObjectID) {}
func (nopNotifier) CommentMentions(primitive.ObjectID, models.Card, []primitive.ObjectID, string) {
}

// Engine applies board mutations against the entity stores.
type Engine struct {
	client   *mongo.Client
	boards   *boardstore.Store
	lists    *liststore.Store
	cards    *cardstore.Store
	comments *commentstore.Store
	users    *userstore.Store
	gate     *authz.Gate
	notify   Notifier
	log      *zap.Logger
}

// New builds an Engine over db. client is used for cascade transactions
// and may be nil to run cascades without one. notifier may be nil.
func New(client *mongo.Client, db *mongo.Database, notifier Notifier, logger *zap.Logger) *Engine {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	boards := boardstore.New(db)
	return &Engine{
		client:   client,
		boards:   boards,
		lists:    liststore.New(db),
		cards:    cardstore.New(db),
		comments: commentstore.New(db),
		users:    userstore.New(db),
		gate:     authz.NewGate(boards),
		notify:   notifier,
		log:      logger,
	}
}

// Gate exposes the access gate so other components (the realtime registry)
// apply the same owner-or-member rule.
func (e *Engine) Gate() *authz.Gate { return e.gate }

// storeErr maps a store error: ErrNoDocuments becomes NotFound(msg), the
// rest Internal.
func storeErr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}

// accessibleBoard loads a board the user owns or belongs to.
func (e *Engine) accessibleBoard(ctx context.Context, userID, boardID primitive.ObjectID) (models.Board, error) {
	b, err := e.boards.GetAccessible(ctx, boardID, userID)
	if err != nil {
		return models.Board{}, storeErr(err, msgBoardNotFound)
	}
	return b, nil
}

// checkBoard runs the gate for entities below the board, where a denial is
// reported as Forbidden.
func (e *Engine) checkBoard(ctx context.Context, userID, boardID primitive.ObjectID) error {
	ok, err := e.gate.CanAccess(ctx, userID, boardID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.Forbidden(msgAccessDenied)
	}
	return nil
}

func (e *Engine) accessibleList(ctx context.Context, userID, listID primitive.ObjectID) (models.List, error) {
	l, err := e.lists.GetByID(ctx, listID)
	if err != nil {
		return models.List{}, storeErr(err, msgListNotFound)
	}
	if err := e.checkBoard(ctx, userID, l.BoardID); err != nil {
		return models.List{}, err
	}
	return l, nil
}

func (e *Engine) accessibleCard(ctx context.Context, userID, cardID primitive.ObjectID) (models.Card, error) {
	c, err := e.cards.GetByID(ctx, cardID)
	if err != nil {
		return models.Card{}, storeErr(err, msgCardNotFound)
	}
	if err := e.checkBoard(ctx, userID, c.BoardID); err != nil {
		return models.Card{}, err
	}
	return c, nil
}

// listInBoard loads listID and verifies it belongs to boardID.
func (e *Engine) listInBoard(ctx context.Context, boardID, listID primitive.ObjectID) (models.List, error) {
	l, err := e.lists.GetByID(ctx, listID)
	if err != nil {
		return models.List{}, storeErr(err, msgListNotFound)
	}
	if l.BoardID != boardID {
		return models.List{}, apperr.Validation("List does not belong to this board")
	}
	return l, nil
}

// participants returns the owner followed by members, without duplicates.
func participants(b models.Board) []primitive.ObjectID {
	out := []primitive.ObjectID{b.OwnerID}
	for _, id := range b.Members {
		if id != b.OwnerID {
			out = append(out, id)
		}
	}
	return out
}

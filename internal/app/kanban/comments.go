package kanban

import (
	"context"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateComment adds a comment to a card on a board userID can access and
// notifies any board participant mentioned in it.
func (e *Engine) CreateComment(ctx context.Context, userID, cardID primitive.ObjectID, text string) (models.CommentView, error) {
	text = htmlsanitize.Clean(text)
	if cardID.IsZero() || text == "" {
		return models.CommentView{}, apperr.Validation("Card ID and text are required")
	}
	card, err := e.accessibleCard(ctx, userID, cardID)
	if err != nil {
		return models.CommentView{}, err
	}

	cm, err := e.comments.Create(ctx, models.Comment{Text: text, CardID: cardID, AuthorID: userID})
	if err != nil {
		return models.CommentView{}, apperr.Internal(err)
	}
	if err := e.cards.AddComment(ctx, cardID, cm.ID); err != nil {
		return models.CommentView{}, apperr.Internal(err)
	}

	if board, err := e.boards.GetByID(ctx, card.BoardID); err == nil {
		e.notify.CommentMentions(userID, card, participants(board), text)
	} else {
		e.log.Warn("mention lookup skipped", zap.String("card_id", cardID.Hex()), zap.Error(err))
	}

	return e.commentView(ctx, cm)
}

// UpdateComment replaces the text of a comment written by userID.
func (e *Engine) UpdateComment(ctx context.Context, userID, commentID primitive.ObjectID, text string) (models.CommentView, error) {
	text = htmlsanitize.Clean(text)
	if text == "" {
		return models.CommentView{}, apperr.Validation("Comment text is required")
	}
	if _, err := e.ownComment(ctx, userID, commentID); err != nil {
		return models.CommentView{}, err
	}
	cm, err := e.comments.UpdateText(ctx, commentID, userID, text)
	if err != nil {
		return models.CommentView{}, storeErr(err, msgCommentNotFound)
	}
	return e.commentView(ctx, cm)
}

// DeleteComment removes a comment written by userID and drops it from its
// card.
func (e *Engine) DeleteComment(ctx context.Context, userID, commentID primitive.ObjectID) error {
	cm, err := e.ownComment(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if err := e.cards.RemoveComment(ctx, cm.CardID, commentID); err != nil {
		return apperr.Internal(err)
	}
	if _, err := e.comments.Delete(ctx, commentID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ownComment loads a comment and checks that userID wrote it. Board role
// plays no part.
func (e *Engine) ownComment(ctx context.Context, userID, commentID primitive.ObjectID) (models.Comment, error) {
	cm, err := e.comments.GetByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, storeErr(err, msgCommentNotFound)
	}
	if cm.AuthorID != userID {
		return models.Comment{}, apperr.Forbidden(msgAccessDenied)
	}
	return cm, nil
}

func (e *Engine) commentView(ctx context.Context, cm models.Comment) (models.CommentView, error) {
	views, err := e.commentViews(ctx, []models.Comment{cm})
	if err != nil {
		return models.CommentView{}, err
	}
	return views[0], nil
}

package boardsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Outcome says what Apply did with a frame.
type Outcome int

const (
	// Applied means the frame was merged into the cache.
	Applied Outcome = iota
	// Ignored means the frame needs no local change (presence, comments,
	// or another board's traffic).
	Ignored
	// Stale means the frame could not be merged and the cache should be
	// reloaded from the server.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	default:
		return "stale"
	}
}

type cardPayload struct {
	BoardID primitive.ObjectID `json:"boardId"`
	Card    *models.CardView   `json:"card"`
	CardID  primitive.ObjectID `json:"cardId"`
}

type listPayload struct {
	BoardID primitive.ObjectID `json:"boardId"`
	List    *models.ListView   `json:"list"`
	ListID  primitive.ObjectID `json:"listId"`
}

// Apply merges one relayed frame into the cache without any I/O.
func (c *Cache) Apply(f realtime.Frame) Outcome {
	switch f.Event {
	case realtime.EventUserJoined, realtime.EventUserLeft, realtime.EventError:
		return Ignored
	case realtime.EventCommentAdded, realtime.EventCommentUpdated, realtime.EventCommentDeleted:
		// Cards carry comment ids only; open card views refetch on their own.
		return Ignored

	case realtime.EventCardCreated, realtime.EventCardUpdated, realtime.EventCardMoved, realtime.EventCardDeleted:
		var p cardPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Stale
		}
		if !p.BoardID.IsZero() && p.BoardID != c.boardID {
			return Ignored
		}
		return c.applyCard(f.Event, p)

	case realtime.EventListCreated, realtime.EventListUpdated, realtime.EventListDeleted:
		var p listPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Stale
		}
		if !p.BoardID.IsZero() && p.BoardID != c.boardID {
			return Ignored
		}
		return c.applyList(f.Event, p)
	}
	return Stale
}

func (c *Cache) applyCard(event string, p cardPayload) Outcome {
	if event == realtime.EventCardDeleted {
		id := p.CardID
		if id.IsZero() && p.Card != nil {
			id = p.Card.ID
		}
		if id.IsZero() {
			return Stale
		}
		// Already gone locally is fine.
		c.RemoveCard(id)
		return Applied
	}
	if p.Card == nil || p.Card.ID.IsZero() {
		return Stale
	}

	var ok bool
	switch event {
	case realtime.EventCardCreated:
		ok = c.AddCard(*p.Card)
	case realtime.EventCardUpdated:
		ok = c.UpdateCard(*p.Card)
	case realtime.EventCardMoved:
		if p.Card.ListID == nil {
			return Stale
		}
		ok = c.MoveCard(p.Card.ID, *p.Card.ListID, p.Card.Order)
	}
	if !ok {
		return Stale
	}
	return Applied
}

func (c *Cache) applyList(event string, p listPayload) Outcome {
	if event == realtime.EventListDeleted {
		id := p.ListID
		if id.IsZero() && p.List != nil {
			id = p.List.ID
		}
		if id.IsZero() {
			return Stale
		}
		c.RemoveList(id)
		return Applied
	}
	if p.List == nil || p.List.ID.IsZero() {
		return Stale
	}
	if event == realtime.EventListCreated {
		c.AddList(*p.List)
		return Applied
	}
	if !c.UpdateList(*p.List) {
		return Stale
	}
	return Applied
}

// ApplyEvent merges f and reloads the board when the frame could not be
// applied.
func (c *Cache) ApplyEvent(ctx context.Context, f realtime.Frame) (Outcome, error) {
	out := c.Apply(f)
	if out != Stale {
		return out, nil
	}
	c.log.Debug("boardsync: reloading after unmergeable frame",
		zap.String("board_id", c.boardID.Hex()), zap.String("event", f.Event))
	if err := c.Load(ctx); err != nil {
		return out, fmt.Errorf("reload after %s: %w", f.Event, err)
	}
	return out, nil
}

// ErrUnknownCard is returned by OptimisticMove for a card not in the cache.
var ErrUnknownCard = errors.New("boardsync: card not cached")

// CommitFunc performs the authoritative move on the server.
type CommitFunc func(ctx context.Context) error

// OptimisticMove moves the card locally, then runs commit. If commit
// fails the local change is discarded by reloading the board; the commit
// error is returned either way, joined with any reload error.
func (c *Cache) OptimisticMove(ctx context.Context, cardID, newListID primitive.ObjectID, newOrder int, commit CommitFunc) error {
	if !c.MoveCard(cardID, newListID, newOrder) {
		return ErrUnknownCard
	}
	err := commit(ctx)
	if err == nil {
		return nil
	}
	c.log.Info("boardsync: move rejected, reloading",
		zap.String("card_id", cardID.Hex()), zap.Error(err))
	if lerr := c.Load(ctx); lerr != nil {
		return errors.Join(err, lerr)
	}
	return err
}

// internal/app/store/cards/cardstore.go
package cardstore

import (
	"context"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cards")}
}

// Update carries the optional fields of a card update. Nil pointers leave
// the field unchanged.
type Update struct {
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

func (s *Store) Create(ctx context.Context, c models.Card) (models.Card, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	if c.Assignees == nil {
		c.Assignees = []primitive.ObjectID{}
	}
	if c.Labels == nil {
		c.Labels = []string{}
	}
	if c.Comments == nil {
		c.Comments = []primitive.ObjectID{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Card{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Card, error) {
	var c models.Card
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Card{}, err
	}
	return c, nil
}

var byOrder = bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Card, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(byOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Card{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByBoard returns all cards on a board sorted by order.
func (s *Store) ListByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Card, error) {
	return s.find(ctx, bson.M{"board_id": boardID})
}

// ListByList returns the cards of one list sorted by order.
func (s *Store) ListByList(ctx context.Context, listID primitive.ObjectID) ([]models.Card, error) {
	return s.find(ctx, bson.M{"list_id": listID})
}

// ListByBoardStatus returns the board's cards with the given status
// sorted by order.
func (s *Store) ListByBoardStatus(ctx context.Context, boardID primitive.ObjectID, status string) ([]models.Card, error) {
	return s.find(ctx, bson.M{"board_id": boardID, "status": status})
}

func (s *Store) maxOrder(ctx context.Context, filter bson.M) (int, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "order", Value: -1}}).
		SetProjection(bson.M{"order": 1})
	var c models.Card
	err := s.c.FindOne(ctx, filter, opts).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.Order, true, nil
}

// MaxOrderInList returns the highest card order in a list.
func (s *Store) MaxOrderInList(ctx context.Context, listID primitive.ObjectID) (int, bool, error) {
	return s.maxOrder(ctx, bson.M{"list_id": listID})
}

// MaxOrderInStatus returns the highest card order among the board's cards
// with the given status.
func (s *Store) MaxOrderInStatus(ctx context.Context, boardID primitive.ObjectID, status string) (int, bool, error) {
	return s.maxOrder(ctx, bson.M{"board_id": boardID, "status": status})
}

// Update applies u and returns the updated card.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Card, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}
	if u.Order != nil {
		set["order"] = *u.Order
	}
	if u.ListID != nil {
		set["list_id"] = *u.ListID
	}
	if u.Assignees != nil {
		set["assignees"] = nonNilIDs(*u.Assignees)
	}
	if u.Labels != nil {
		labels := *u.Labels
		if labels == nil {
			labels = []string{}
		}
		set["labels"] = labels
	}
	update := bson.M{"$set": set}
	if u.ClearDueDate {
		update["$unset"] = bson.M{"due_date": ""}
	} else if u.DueDate != nil {
		set["due_date"] = u.DueDate.UTC()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Card
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&c); err != nil {
		return models.Card{}, err
	}
	return c, nil
}

// AddComment appends commentID to the card's comment ids.
func (s *Store) AddComment(ctx context.Context, cardID, commentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, cardID, bson.M{"$addToSet": bson.M{"comments": commentID}})
	return err
}

// RemoveComment removes commentID from the card's comment ids.
func (s *Store) RemoveComment(ctx context.Context, cardID, commentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, cardID, bson.M{"$pull": bson.M{"comments": commentID}})
	return err
}

// IDsByBoard returns the ids of every card on a board.
func (s *Store) IDsByBoard(ctx context.Context, boardID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"board_id": boardID})
}

// IDsByList returns the ids of every card in a list.
func (s *Store) IDsByList(ctx context.Context, listID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"list_id": listID})
}

func (s *Store) ids(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

// Delete removes a card by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByBoard removes all cards belonging to a board.
func (s *Store) DeleteByBoard(ctx context.Context, boardID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"board_id": boardID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByList removes all cards whose list is listID.
func (s *Store) DeleteByList(ctx context.Context, listID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"list_id": listID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func nonNilIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

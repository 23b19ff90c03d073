// internal/app/store/lists/liststore.go
package liststore

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
	return &Store{c: db.Collection("lists")}
}

// Update carries the optional fields of a list update.
type Update struct {
	Title *string
	Order *int
}

func (s *Store) Create(ctx context.Context, l models.List) (models.List, error) {
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	if l.Cards == nil {
		l.Cards = []primitive.ObjectID{}
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.List{}, err
	}
	return l, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.List, error) {
	var l models.List
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return models.List{}, err
	}
	return l, nil
}

// ListByBoard returns the board's lists sorted by order ascending.
func (s *Store) ListByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.List, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"board_id": boardID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.List{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MaxOrder returns the highest order among the board's lists and whether
// any list exists.
func (s *Store) MaxOrder(ctx context.Context, boardID primitive.ObjectID) (int, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "order", Value: -1}}).
		SetProjection(bson.M{"order": 1})
	var l models.List
	err := s.c.FindOne(ctx, bson.M{"board_id": boardID}, opts).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return l.Order, true, nil
}

// Update applies u and returns the updated list.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.List, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Order != nil {
		set["order"] = *u.Order
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var l models.List
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&l); err != nil {
		return models.List{}, err
	}
	return l, nil
}

// SetOrder sets the order of a list that belongs to boardID. It reports
// whether a list matched.
func (s *Store) SetOrder(ctx context.Context, boardID, listID primitive.ObjectID, order int) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": listID, "board_id": boardID},
		bson.M{"$set": bson.M{"order": order, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// AddCard appends cardID to the list's card ids if not already present.
func (s *Store) AddCard(ctx context.Context, listID, cardID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, listID, bson.M{
		"$addToSet": bson.M{"cards": cardID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveCard removes cardID from the list's card ids. A missing list is
// not an error.
func (s *Store) RemoveCard(ctx context.Context, listID, cardID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, listID, bson.M{
		"$pull": bson.M{"cards": cardID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a list by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByBoard removes all lists belonging to a board.
// Returns the number of documents deleted.
func (s *Store) DeleteByBoard(ctx context.Context, boardID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"board_id": boardID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

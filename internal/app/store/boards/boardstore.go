// internal/app/store/boards/boardstore.go
package boardstore

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
	return &Store{c: db.Collection("boards")}
}

// Update carries the optional fields of a board update. Nil fields are
// left unchanged; Labels replaces the whole label set when non-nil.
type Update struct {
	Title       *string
	Description *string
	Labels      *[]models.Label
}

// accessFilter matches boardID only when userID is its owner or a member.
func accessFilter(boardID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id": boardID,
		"$or": []bson.M{
			{"owner_id": userID},
			{"members": userID},
		},
	}
}

func ownerFilter(boardID, ownerID primitive.ObjectID) bson.M {
	return bson.M{"_id": boardID, "owner_id": ownerID}
}

// Create inserts a board owned by b.OwnerID with the owner as sole member.
func (s *Store) Create(ctx context.Context, b models.Board) (models.Board, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Members = []primitive.ObjectID{b.OwnerID}
	b.Lists = []primitive.ObjectID{}
	if b.Labels == nil {
		b.Labels = []models.Label{}
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

// GetByID loads a board without an access check.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Board, error) {
	var b models.Board
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

// GetAccessible loads a board the user owns or belongs to.
// Returns mongo.ErrNoDocuments otherwise.
func (s *Store) GetAccessible(ctx context.Context, boardID, userID primitive.ObjectID) (models.Board, error) {
	var b models.Board
	if err := s.c.FindOne(ctx, accessFilter(boardID, userID)).Decode(&b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

// ListForUser returns all boards the user owns or belongs to, most
// recently updated first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Board, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"members": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Board{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CanAccess reports whether userID is the owner or a member of boardID.
func (s *Store) CanAccess(ctx context.Context, boardID, userID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, accessFilter(boardID, userID))
}

// IsOwner reports whether userID owns boardID.
func (s *Store) IsOwner(ctx context.Context, boardID, userID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, ownerFilter(boardID, userID))
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update applies u to a board the user can access and returns the updated
// document. Returns mongo.ErrNoDocuments if no accessible board matches.
func (s *Store) Update(ctx context.Context, boardID, userID primitive.ObjectID, u Update) (models.Board, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Labels != nil {
		labels := *u.Labels
		if labels == nil {
			labels = []models.Label{}
		}
		set["labels"] = labels
	}
	return s.findAndUpdate(ctx, accessFilter(boardID, userID), bson.M{"$set": set})
}

// AddMember adds memberID to the board's member set. The update only
// matches when userID can access the board and memberID is not already a
// member, so concurrent adds cannot produce duplicates. Returns
// mongo.ErrNoDocuments when nothing matched.
func (s *Store) AddMember(ctx context.Context, boardID, userID, memberID primitive.ObjectID) (models.Board, error) {
	// The access clause already uses "members" inside $or, so the
	// not-yet-a-member condition goes under $and.
	filter := bson.M{"$and": []bson.M{
		accessFilter(boardID, userID),
		{"members": bson.M{"$ne": memberID}},
	}}
	update := bson.M{
		"$addToSet": bson.M{"members": memberID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	return s.findAndUpdate(ctx, filter, update)
}

// RemoveMembers pulls every id in ids from the members of a board owned by
// ownerID in one atomic update. Returns mongo.ErrNoDocuments when the
// caller does not own the board.
func (s *Store) RemoveMembers(ctx context.Context, boardID, ownerID primitive.ObjectID, ids ...primitive.ObjectID) (models.Board, error) {
	update := bson.M{
		"$pullAll": bson.M{"members": ids},
		"$set":     bson.M{"updated_at": time.Now().UTC()},
	}
	return s.findAndUpdate(ctx, ownerFilter(boardID, ownerID), update)
}

// AddList appends listID to the board's list ids if not already present.
func (s *Store) AddList(ctx context.Context, boardID, listID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, boardID, bson.M{
		"$addToSet": bson.M{"lists": listID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// PullList removes listID from the board's list ids.
func (s *Store) PullList(ctx context.Context, boardID, listID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, boardID, bson.M{
		"$pull": bson.M{"lists": listID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a board by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M) (models.Board, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Board
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

// internal/domain/models/board.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Label is a board-scoped tag definition. Cards reference labels by ID.
type Label struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Color string `bson:"color" json:"color"`
}

// Board is the top-level container of lists and cards.
//
// Access is owner OR member; the owner is added to Members on creation
// but does not depend on staying there. Lists mirrors the board's list
// ids for clients that still read it.
type Board struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"ownerId"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Lists       []primitive.ObjectID `bson:"lists" json:"lists"`
	Labels      []Label              `bson:"labels" json:"labels"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// BoardView is a Board with owner and members expanded to profiles.
type BoardView struct {
	ID          primitive.ObjectID   `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Owner       Profile              `json:"owner"`
	Members     []Profile            `json:"members"`
	Lists       []primitive.ObjectID `json:"lists"`
	Labels      []Label              `json:"labels"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

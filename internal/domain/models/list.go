// internal/domain/models/list.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// List is an ordered column within a board.
// Cards mirrors the ids of cards whose ListID points here.
type List struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Title     string               `bson:"title" json:"title"`
	BoardID   primitive.ObjectID   `bson:"board_id" json:"boardId"`
	Order     int                  `bson:"order" json:"order"`
	Cards     []primitive.ObjectID `bson:"cards" json:"cards"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`
}

// ListView is a List with its cards loaded and sorted by order.
type ListView struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	BoardID   primitive.ObjectID `json:"boardId"`
	Order     int                `json:"order"`
	Cards     []CardView         `json:"cards"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

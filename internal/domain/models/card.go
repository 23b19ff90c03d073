// internal/domain/models/card.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Card status values. Transitions between them are unrestricted.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// Card priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// CardStatuses is the canonical list of card statuses.
var CardStatuses = []string{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// CardPriorities is the canonical list of card priorities.
var CardPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsValidStatus reports whether s is a known card status.
func IsValidStatus(s string) bool {
	for _, v := range CardStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is a known card priority.
func IsValidPriority(p string) bool {
	for _, v := range CardPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// Card is the unit of work on a board.
//
// BoardID is fixed at creation. ListID may be nil while a card is not
// placed in any list; when set, the list's Cards must contain ID.
// Order sorts cards within their list, or within (board, status) when
// the card has no list.
type Card struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	ListID      *primitive.ObjectID  `bson:"list_id" json:"listId"`
	BoardID     primitive.ObjectID   `bson:"board_id" json:"boardId"`
	Order       int                  `bson:"order" json:"order"`
	Status      string               `bson:"status" json:"status"`
	Priority    string               `bson:"priority" json:"priority"`
	Assignees   []primitive.ObjectID `bson:"assignees" json:"assignees"`
	Labels      []string             `bson:"labels" json:"labels"`
	DueDate     *time.Time           `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	Comments    []primitive.ObjectID `bson:"comments" json:"comments"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// CardView is a Card with assignees expanded. Comments is populated only
// on single-card reads.
type CardView struct {
	ID          primitive.ObjectID  `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ListID      *primitive.ObjectID `json:"listId"`
	BoardID     primitive.ObjectID  `json:"boardId"`
	Order       int                 `json:"order"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	Assignees   []Profile           `json:"assignees"`
	Labels      []string            `json:"labels"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	Comments    []CommentView       `json:"comments,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

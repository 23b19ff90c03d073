// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyCard    = "card"
	NotifyComment = "comment"
	NotifyBoard   = "board"
	NotifyMember  = "member"
	NotifySystem  = "system"
)

// NotificationTypes is the canonical list used by the schema validator.
var NotificationTypes = []string{NotifyCard, NotifyComment, NotifyBoard, NotifyMember, NotifySystem}

// Notification is a message addressed to one account.
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"userId"`
	Message     string              `bson:"message" json:"message"`
	Type        string              `bson:"type" json:"type"`
	RelatedID   *primitive.ObjectID `bson:"related_id,omitempty" json:"relatedId,omitempty"`
	RelatedType string              `bson:"related_type,omitempty" json:"relatedType,omitempty"`
	IsRead      bool                `bson:"is_read" json:"isRead"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
}

package realtime

import (
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Control events sent by clients.
const (
	EventJoinBoard  = "join-board"
	EventLeaveBoard = "leave-board"
)

// Server-originated events.
const (
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventError      = "error"
)

// Relay events. The server forwards these to the rest of the room without
// checking their payload against the store; receivers treat them as hints.
const (
	EventCardCreated    = "card-created"
	EventCardUpdated    = "card-updated"
	EventCardMoved      = "card-moved"
	EventCardDeleted    = "card-deleted"
	EventCommentAdded   = "comment-added"
	EventCommentUpdated = "comment-updated"
	EventCommentDeleted = "comment-deleted"
	EventListCreated    = "list-created"
	EventListUpdated    = "list-updated"
	EventListDeleted    = "list-deleted"
)

var relayEvents = map[string]bool{
	EventCardCreated:    true,
	EventCardUpdated:    true,
	EventCardMoved:      true,
	EventCardDeleted:    true,
	EventCommentAdded:   true,
	EventCommentUpdated: true,
	EventCommentDeleted: true,
	EventListCreated:    true,
	EventListUpdated:    true,
	EventListDeleted:    true,
}

// IsRelayEvent reports whether name is forwarded between room members.
func IsRelayEvent(name string) bool { return relayEvents[name] }

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Presence is the payload of user-joined and user-left.
type Presence struct {
	UserID   string `json:"userId"`
	SocketID string `json:"socketId"`
}

type errorData struct {
	Message string `json:"message"`
}

// Encode builds a frame for event with data marshalled as its payload.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// BoardIDOf reads the board id from a payload that is either a bare id
// string or an object with a boardId field.
func BoardIDOf(data json.RawMessage) (primitive.ObjectID, bool) {
	if len(data) == 0 {
		return primitive.NilObjectID, false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var obj struct {
			BoardID string `json:"boardId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return primitive.NilObjectID, false
		}
		s = obj.BoardID
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

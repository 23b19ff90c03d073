package realtime

import (
	"context"
	"encoding/json"

	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Access answers whether a user may join a board's room.
// authz.Gate implements it.
type Access interface {
	CanAccess(ctx context.Context, userID, boardID primitive.ObjectID) (bool, error)
}

// Dispatcher applies inbound frames from authenticated clients to a set
// of rooms.
type Dispatcher struct {
	rooms Rooms
	gate  Access
	log   *zap.Logger
}

// NewDispatcher wires a dispatcher over rooms, checking joins with gate.
func NewDispatcher(rooms Rooms, gate Access, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{rooms: rooms, gate: gate, log: logger}
}

// Rooms returns the room table the dispatcher writes to.
func (d *Dispatcher) Rooms() Rooms { return d.rooms }

// Connect registers a freshly authenticated client.
func (d *Dispatcher) Connect(c *Client) {
	d.rooms.Add(c)
	d.log.Debug("ws connected", zap.String("socket_id", c.ID), zap.String("user_id", c.UserID.Hex()))
}

// Disconnect removes c from every room and tells each room it left.
func (d *Dispatcher) Disconnect(c *Client) {
	for _, boardID := range d.rooms.Remove(c) {
		d.presence(EventUserLeft, boardID, c)
	}
	d.log.Debug("ws disconnected", zap.String("socket_id", c.ID), zap.String("user_id", c.UserID.Hex()))
}

// Handle processes one raw inbound frame from c.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
		d.fail(c, "Malformed frame")
		return
	}

	switch {
	case f.Event == EventJoinBoard:
		d.join(ctx, c, f.Data)
	case f.Event == EventLeaveBoard:
		boardID, ok := BoardIDOf(f.Data)
		if !ok {
			d.fail(c, "Board ID is required")
			return
		}
		if d.rooms.Leave(c, boardID) {
			d.presence(EventUserLeft, boardID, c)
		}
	case IsRelayEvent(f.Event):
		boardID, ok := BoardIDOf(f.Data)
		if !ok {
			d.fail(c, "Board ID is required")
			return
		}
		if !d.rooms.InRoom(c, boardID) {
			d.fail(c, "Join the board before sending events")
			return
		}
		d.rooms.Broadcast(boardID, raw, c)
	default:
		d.fail(c, "Unknown event")
	}
}

func (d *Dispatcher) join(ctx context.Context, c *Client, data json.RawMessage) {
	boardID, ok := BoardIDOf(data)
	if !ok {
		d.fail(c, "Board ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	allowed, err := d.gate.CanAccess(ctx, c.UserID, boardID)
	if err != nil {
		d.log.Error("room access check failed",
			zap.String("board_id", boardID.Hex()), zap.String("user_id", c.UserID.Hex()), zap.Error(err))
		d.fail(c, "Could not join board")
		return
	}
	if !allowed {
		d.fail(c, "Access denied")
		return
	}
	if d.rooms.Join(c, boardID) {
		d.presence(EventUserJoined, boardID, c)
	}
}

func (d *Dispatcher) presence(event string, boardID primitive.ObjectID, c *Client) {
	frame, err := Encode(event, Presence{UserID: c.UserID.Hex(), SocketID: c.ID})
	if err != nil {
		d.log.Error("encode presence failed", zap.Error(err))
		return
	}
	d.rooms.Broadcast(boardID, frame, c)
}

func (d *Dispatcher) fail(c *Client, msg string) {
	frame, err := Encode(EventError, errorData{Message: msg})
	if err != nil {
		return
	}
	if !c.Send(frame) {
		d.log.Debug("ws error frame dropped", zap.String("socket_id", c.ID))
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeAccess struct {
	allowed map[primitive.ObjectID]map[primitive.ObjectID]bool
	err     error
}

func (f *fakeAccess) allow(userID, boardID primitive.ObjectID) {
	if f.allowed == nil {
		f.allowed = map[primitive.ObjectID]map[primitive.ObjectID]bool{}
	}
	if f.allowed[userID] == nil {
		f.allowed[userID] = map[primitive.ObjectID]bool{}
	}
	f.allowed[userID][boardID] = true
}

func (f *fakeAccess) CanAccess(_ context.Context, userID, boardID primitive.ObjectID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[userID][boardID], nil
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	b, err := Encode(event, data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func next(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Outbox():
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		return f
	default:
		t.Fatal("expected a queued frame")
		return Frame{}
	}
}

func empty(t *testing.T, c *Client) {
	t.Helper()
	if n := len(c.Outbox()); n != 0 {
		t.Fatalf("expected no frames, %d queued", n)
	}
}

type room struct {
	d      *Dispatcher
	reg    *Registry
	access *fakeAccess
	board  primitive.ObjectID
	alice  *Client
	bob    *Client
}

func newRoom(t *testing.T) room {
	t.Helper()
	reg := NewRegistry()
	access := &fakeAccess{}
	d := NewDispatcher(reg, access, zap.NewNop())
	rm := room{
		d:      d,
		reg:    reg,
		access: access,
		board:  primitive.NewObjectID(),
		alice:  NewClient(primitive.NewObjectID(), 8),
		bob:    NewClient(primitive.NewObjectID(), 8),
	}
	d.Connect(rm.alice)
	d.Connect(rm.bob)
	return rm
}

func TestJoin_AnnouncesToOthers(t *testing.T) {
	rm := newRoom(t)
	ctx := context.Background()
	rm.access.allow(rm.alice.UserID, rm.board)
	rm.access.allow(rm.bob.UserID, rm.board)

	rm.d.Handle(ctx, rm.alice, frame(t, EventJoinBoard, rm.board.Hex()))
	empty(t, rm.alice)

	rm.d.Handle(ctx, rm.bob, frame(t, EventJoinBoard, map[string]string{"boardId": rm.board.Hex()}))
	f := next(t, rm.alice)
	if f.Event != EventUserJoined {
		t.Fatalf("event = %q, want %q", f.Event, EventUserJoined)
	}
	var p Presence
	if err := json.Unmarshal(f.Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.UserID != rm.bob.UserID.Hex() || p.SocketID != rm.bob.ID {
		t.Errorf("presence = %+v", p)
	}
	empty(t, rm.bob)
}

func TestJoin_DeniedDoesNotAnnounce(t *testing.T) {
	rm := newRoom(t)
	ctx := context.Background()
	rm.access.allow(rm.alice.UserID, rm.board)
	rm.d.Handle(ctx, rm.alice, frame(t, EventJoinBoard, rm.board.Hex()))

	rm.d.Handle(ctx, rm.bob, frame(t, EventJoinBoard, rm.board.Hex()))
	if f := next(t, rm.bob); f.Event != EventError {
		t.Errorf("bob got %q, want error", f.Event)
	}
	empty(t, rm.alice)
	if rm.reg.InRoom(rm.bob, rm.board) {
		t.Error("denied client was added to the room")
	}
}

func TestJoin_GateErrorIsReported(t *testing.T) {
	rm := newRoom(t)
	rm.access.err = errors.New("db down")
	rm.d.Handle(context.Background(), rm.alice, frame(t, EventJoinBoard, rm.board.Hex()))
	if f := next(t, rm.alice); f.Event != EventError {
		t.Errorf("event = %q, want error", f.Event)
	}
}

func TestRelay(t *testing.T) {
	rm := newRoom(t)
	ctx := context.Background()
	rm.access.allow(rm.alice.UserID, rm.board)
	rm.access.allow(rm.bob.UserID, rm.board)
	rm.d.Handle(ctx, rm.alice, frame(t, EventJoinBoard, rm.board.Hex()))

	// Access alone is not enough to inject into a room.
	moved := frame(t, EventCardMoved, map[string]any{"boardId": rm.board.Hex(), "cardId": "c1"})
	rm.d.Handle(ctx, rm.bob, moved)
	if f := next(t, rm.bob); f.Event != EventError {
		t.Errorf("bob got %q, want error", f.Event)
	}
	empty(t, rm.alice)

	rm.d.Handle(ctx, rm.bob, frame(t, EventJoinBoard, rm.board.Hex()))
	next(t, rm.alice) // user-joined

	rm.d.Handle(ctx, rm.bob, moved)
	got := <-rm.alice.Outbox()
	if string(got) != string(moved) {
		t.Errorf("relayed %s, want verbatim %s", got, moved)
	}
	empty(t, rm.bob)
}

func TestLeaveAndDisconnect(t *testing.T) {
	rm := newRoom(t)
	ctx := context.Background()
	rm.access.allow(rm.alice.UserID, rm.board)
	rm.access.allow(rm.bob.UserID, rm.board)
	rm.d.Handle(ctx, rm.alice, frame(t, EventJoinBoard, rm.board.Hex()))
	rm.d.Handle(ctx, rm.bob, frame(t, EventJoinBoard, rm.board.Hex()))
	next(t, rm.alice)

	rm.d.Handle(ctx, rm.bob, frame(t, EventLeaveBoard, rm.board.Hex()))
	if f := next(t, rm.alice); f.Event != EventUserLeft {
		t.Errorf("event = %q, want user-left", f.Event)
	}

	rm.d.Handle(ctx, rm.bob, frame(t, EventJoinBoard, rm.board.Hex()))
	next(t, rm.alice)
	rm.d.Disconnect(rm.bob)
	if f := next(t, rm.alice); f.Event != EventUserLeft {
		t.Errorf("event = %q, want user-left", f.Event)
	}
	if rm.reg.RoomSize(rm.board) != 1 {
		t.Errorf("room size = %d, want 1", rm.reg.RoomSize(rm.board))
	}
}

func TestHandle_BadFrames(t *testing.T) {
	rm := newRoom(t)
	for _, raw := range []string{`not json`, `{"data":1}`, `{"event":"teleport"}`, `{"event":"card-created","data":{}}`} {
		rm.d.Handle(context.Background(), rm.alice, []byte(raw))
		if f := next(t, rm.alice); f.Event != EventError {
			t.Errorf("%s: event = %q, want error", raw, f.Event)
		}
	}
}

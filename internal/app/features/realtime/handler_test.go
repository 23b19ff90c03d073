package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wsfeature "github.com/dalemusser/kanbanhub/internal/app/features/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type allowAll struct{}

func (allowAll) CanAccess(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return true, nil
}

type server struct {
	*httptest.Server
	rooms  *realtime.Registry
	tokens interface {
		Issue(userID, email string) (string, error)
	}
}

func newServer(t *testing.T) *server {
	t.Helper()
	tokens := testutil.NewTokenIssuer(t)
	rooms := realtime.NewRegistry()
	d := realtime.NewDispatcher(rooms, allowAll{}, zap.NewNop())
	h := wsfeature.NewHandler(d, tokens, nil, 0, zap.NewNop())
	srv := httptest.NewServer(wsfeature.Routes(h))
	t.Cleanup(func() {
		rooms.CloseAll()
		srv.Close()
	})
	return &server{Server: srv, rooms: rooms, tokens: tokens}
}

func (s *server) dial(t *testing.T, userID primitive.ObjectID) *websocket.Conn {
	t.Helper()
	tok, err := s.tokens.Issue(userID.Hex(), "u@example.com")
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/?token=" + tok
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := realtime.Encode(event, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, ws *websocket.Conn) realtime.Frame {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f realtime.Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return f
}

func waitRoom(t *testing.T, rooms *realtime.Registry, boardID primitive.ObjectID, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rooms.RoomSize(boardID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room size = %d, want %d", rooms.RoomSize(boardID), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	s := newServer(t)

	for _, q := range []string{"", "?token=nope"} {
		url := "ws" + strings.TrimPrefix(s.URL, "http") + "/" + q
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Fatalf("%q: dial succeeded, want handshake failure", q)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%q: response = %v, want 401", q, resp)
		}
	}
}

func TestServeWS_JoinAndRelay(t *testing.T) {
	s := newServer(t)
	boardID := primitive.NewObjectID()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	a := s.dial(t, alice)
	send(t, a, realtime.EventJoinBoard, boardID.Hex())
	waitRoom(t, s.rooms, boardID, 1)

	b := s.dial(t, bob)
	send(t, b, realtime.EventJoinBoard, map[string]string{"boardId": boardID.Hex()})

	f := read(t, a)
	if f.Event != realtime.EventUserJoined {
		t.Fatalf("event = %q, want %q", f.Event, realtime.EventUserJoined)
	}
	var p realtime.Presence
	if err := json.Unmarshal(f.Data, &p); err != nil || p.UserID != bob.Hex() {
		t.Errorf("presence = %+v (%v), want bob", p, err)
	}

	send(t, b, realtime.EventCardCreated, map[string]string{"boardId": boardID.Hex(), "title": "New"})
	f = read(t, a)
	if f.Event != realtime.EventCardCreated || !strings.Contains(string(f.Data), `"title":"New"`) {
		t.Errorf("relay = %s %s", f.Event, f.Data)
	}

	b.Close()
	f = read(t, a)
	if f.Event != realtime.EventUserLeft {
		t.Errorf("event = %q, want %q", f.Event, realtime.EventUserLeft)
	}
}

package boardsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/boardsync"
	wsfeature "github.com/dalemusser/kanbanhub/internal/app/features/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type allowAll struct{}

func (allowAll) CanAccess(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return true, nil
}

type fixture struct {
	srv    *httptest.Server
	rooms  *realtime.Registry
	tokens *auth.TokenIssuer
	snap   boardsync.Snapshot
	loads  atomic.Int32
	moveOK atomic.Bool

	boardID, todo, doing, cardID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens:  testutil.NewTokenIssuer(t),
		rooms:   realtime.NewRegistry(),
		boardID: primitive.NewObjectID(),
		todo:    primitive.NewObjectID(),
		doing:   primitive.NewObjectID(),
		cardID:  primitive.NewObjectID(),
	}
	todo := f.todo
	f.snap = boardsync.Snapshot{
		Board: models.BoardView{ID: f.boardID, Title: "Sprint 1"},
		Lists: []models.ListView{
			{ID: f.todo, Title: "To Do", Order: 0, Cards: []models.CardView{{ID: f.cardID, Title: "Draft", ListID: &todo}}},
			{ID: f.doing, Title: "Doing", Order: 1, Cards: []models.CardView{}},
		},
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		api.Use(f.tokens.RequireBearer(zap.NewNop()))
		api.Get("/boards/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.loads.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(f.snap)
		})
		api.Post("/cards/move", func(w http.ResponseWriter, r *http.Request) {
			if !f.moveOK.Load() {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"status":"failed","message":"Access denied"}`))
				return
			}
			_, _ = w.Write([]byte(`{"card":{}}`))
		})
	})
	d := realtime.NewDispatcher(f.rooms, allowAll{}, zap.NewNop())
	r.Mount("/ws", wsfeature.Routes(wsfeature.NewHandler(d, f.tokens, nil, 0, zap.NewNop())))

	f.srv = httptest.NewServer(r)
	t.Cleanup(func() {
		f.rooms.CloseAll()
		f.srv.Close()
	})
	return f
}

func (f *fixture) client(t *testing.T) *boardsync.Client {
	t.Helper()
	tok, err := f.tokens.Issue(primitive.NewObjectID().Hex(), "u@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return boardsync.NewClient(f.srv.URL, tok, zap.NewNop())
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLoadBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.client(t).LoadBoard(ctx, f.boardID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Board.Title != "Sprint 1" || len(snap.Lists) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	bad := boardsync.NewClient(f.srv.URL, "not-a-token", nil)
	_, err = bad.LoadBoard(ctx, f.boardID)
	var se *boardsync.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Errorf("err = %v, want 401 StatusError", err)
	}
}

func TestMove_RollsBackOnRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t)
	cache := boardsync.NewCache(f.boardID, c, nil)
	if err := cache.Load(ctx); err != nil {
		t.Fatal(err)
	}

	err := c.Move(ctx, cache, f.cardID, f.doing, 0)
	var se *boardsync.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden || se.Message != "Access denied" {
		t.Fatalf("err = %v, want 403 Access denied", err)
	}
	if got, _ := cache.Card(f.cardID); got.ListID == nil || *got.ListID != f.todo {
		t.Errorf("card list = %v, want rolled back to To Do", got.ListID)
	}
	if n := f.loads.Load(); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}

	f.moveOK.Store(true)
	if err := c.Move(ctx, cache, f.cardID, f.doing, 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := cache.Card(f.cardID); *got.ListID != f.doing {
		t.Errorf("card list = %v, want Doing", got.ListID)
	}
}

func TestSubscribe_AppliesPeerEvents(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	cache := boardsync.NewCache(f.boardID, c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Subscribe(ctx, cache) }()

	eventually(t, "subscriber to join", func() bool { return f.rooms.RoomSize(f.boardID) == 1 })
	eventually(t, "initial load", cache.Loaded)

	tok, _ := f.tokens.Issue(primitive.NewObjectID().Hex(), "peer@example.com")
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?token=" + tok
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()
	join, _ := realtime.Encode(realtime.EventJoinBoard, f.boardID.Hex())
	_ = peer.WriteMessage(websocket.TextMessage, join)
	eventually(t, "peer to join", func() bool { return f.rooms.RoomSize(f.boardID) == 2 })

	doing := f.doing
	moved, _ := realtime.Encode(realtime.EventCardMoved, map[string]any{
		"boardId": f.boardID,
		"card":    models.CardView{ID: f.cardID, Title: "Draft", ListID: &doing, Order: 2},
	})
	_ = peer.WriteMessage(websocket.TextMessage, moved)

	eventually(t, "move to apply", func() bool {
		got, ok := cache.Card(f.cardID)
		return ok && got.ListID != nil && *got.ListID == f.doing && got.Order == 2
	})

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Subscribe returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Subscribe did not stop on cancel")
	}
}

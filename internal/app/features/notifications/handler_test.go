package notifications_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kanbanhub/internal/app/features/notifications"
	notificationstore "github.com/dalemusser/kanbanhub/internal/app/store/notifications"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type inbox struct {
	h     *notifications.Handler
	store *notificationstore.Store
	me    models.User
	other models.User
	ctx   context.Context
}

func newInbox(t *testing.T) inbox {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	fx := testutil.NewFixtures(t, db)
	return inbox{
		h:     notifications.NewHandler(db, zap.NewNop()),
		store: notificationstore.New(db),
		me:    fx.CreateUser(ctx, "Me", "me@example.com"),
		other: fx.CreateUser(ctx, "Other", "other@example.com"),
		ctx:   ctx,
	}
}

func (in inbox) add(t *testing.T, userID primitive.ObjectID, msg string) models.Notification {
	t.Helper()
	n, err := in.store.Create(in.ctx, models.Notification{UserID: userID, Message: msg, Type: models.NotifyBoard})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return n
}

func TestListAndUnread(t *testing.T) {
	in := newInbox(t)
	for _, m := range []string{"a", "b", "c"} {
		in.add(t, in.me.ID, m)
	}
	in.add(t, in.other.ID, "not mine")

	rec := httptest.NewRecorder()
	in.h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/?limit=2&skip=0", nil), in.me))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Notifications []models.Notification `json:"notifications"`
		Total         int64                 `json:"total"`
		Limit         int64                 `json:"limit"`
	}
	testutil.DecodeJSON(t, rec, &page)
	if len(page.Notifications) != 2 || page.Total != 3 || page.Limit != 2 {
		t.Errorf("page = %d items, total %d, limit %d", len(page.Notifications), page.Total, page.Limit)
	}
	if page.Notifications[0].Message != "c" {
		t.Errorf("first = %q, want newest", page.Notifications[0].Message)
	}

	rec = httptest.NewRecorder()
	in.h.ServeUnread(rec, testutil.WithUser(httptest.NewRequest("GET", "/unread", nil), in.me))
	var unread struct {
		Notifications []models.Notification `json:"notifications"`
	}
	testutil.DecodeJSON(t, rec, &unread)
	if len(unread.Notifications) != 3 {
		t.Errorf("unread = %d, want 3", len(unread.Notifications))
	}
}

func TestMarkRead_OnlyOwn(t *testing.T) {
	in := newInbox(t)
	mine := in.add(t, in.me.ID, "mine")
	theirs := in.add(t, in.other.ID, "theirs")

	body := `{"notificationIds":["` + mine.ID.Hex() + `","` + theirs.ID.Hex() + `"]}`
	rec := httptest.NewRecorder()
	in.h.HandleMarkRead(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/mark-read", body), in.me))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	left, err := in.store.Unread(in.ctx, in.other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 {
		t.Error("another user's notification was marked read")
	}
	mineLeft, _ := in.store.Unread(in.ctx, in.me.ID)
	if len(mineLeft) != 0 {
		t.Error("own notification still unread")
	}

	rec = httptest.NewRecorder()
	in.h.HandleMarkRead(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/mark-read", `{}`), in.me))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing ids: status = %d, want 400", rec.Code)
	}
}

func TestMarkAllRead(t *testing.T) {
	in := newInbox(t)
	in.add(t, in.me.ID, "a")
	in.add(t, in.me.ID, "b")

	rec := httptest.NewRecorder()
	in.h.HandleMarkAllRead(rec, testutil.WithUser(httptest.NewRequest("POST", "/mark-all-read", nil), in.me))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if left, _ := in.store.Unread(in.ctx, in.me.ID); len(left) != 0 {
		t.Errorf("%d notifications still unread", len(left))
	}
}

func TestDelete(t *testing.T) {
	in := newInbox(t)
	mine := in.add(t, in.me.ID, "mine")
	theirs := in.add(t, in.other.ID, "theirs")

	tests := []struct {
		name string
		id   string
		code int
	}{
		{"own", mine.ID.Hex(), http.StatusOK},
		{"already gone", mine.ID.Hex(), http.StatusNotFound},
		{"someone else's", theirs.ID.Hex(), http.StatusNotFound},
		{"malformed", "x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithChiURLParam(testutil.WithUser(httptest.NewRequest("DELETE", "/", nil), in.me), "id", tt.id)
			rec := httptest.NewRecorder()
			in.h.HandleDelete(rec, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

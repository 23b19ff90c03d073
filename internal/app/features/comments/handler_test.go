package comments_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kanbanhub/internal/app/features/comments"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := comments.NewHandler(kanban.New(db.Client(), db, nil, zap.NewNop()), zap.NewNop())
	return comments.Routes(h, testutil.NoAuth), testutil.NewFixtures(t, db)
}

func do(router http.Handler, req *http.Request, u models.User) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, u))
	return rec
}

func TestCommentLifecycle(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	b := fx.CreateBoard(ctx, "Sprint 1", alice.ID, bob.ID)
	l := fx.CreateList(ctx, b.ID, "To Do", 0)
	c := fx.CreateCard(ctx, b.ID, &l, "Review PR", 0)

	rec := do(router, testutil.NewJSONRequest("POST", "/", `{"cardId":"`+c.ID.Hex()+`","text":"Looks good"}`), bob)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Comment models.CommentView `json:"comment"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Comment.Text != "Looks good" {
		t.Errorf("text = %q", body.Comment.Text)
	}
	id := body.Comment.ID.Hex()

	if rec := do(router, testutil.NewJSONRequest("PUT", "/"+id, `{"text":"edited"}`), alice); rec.Code != http.StatusForbidden {
		t.Errorf("non-author update = %d, want 403", rec.Code)
	}
	rec = do(router, testutil.NewJSONRequest("PUT", "/"+id, `{"text":"Looks great"}`), bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Comment.Text != "Looks great" {
		t.Errorf("updated text = %q", body.Comment.Text)
	}

	if rec := do(router, testutil.NewRequest("DELETE", "/"+id), alice); rec.Code != http.StatusForbidden {
		t.Errorf("non-author delete = %d, want 403", rec.Code)
	}
	if rec := do(router, testutil.NewRequest("DELETE", "/"+id), bob); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(router, testutil.NewRequest("DELETE", "/"+id), bob); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestCreateComment_Validation(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")

	tests := []struct {
		name string
		body string
	}{
		{"missing card", `{"text":"hi"}`},
		{"bad card id", `{"cardId":"123","text":"hi"}`},
		{"blank text", `{"cardId":"` + alice.ID.Hex() + `","text":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, testutil.NewJSONRequest("POST", "/", tt.body), alice)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

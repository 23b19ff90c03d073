package users_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/kanbanhub/internal/app/features/users"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	me := fx.CreateUser(ctx, "Me", "me@example.com")
	fx.CreateUser(ctx, "Dana Scully", "dana@fbi.example.com")
	fx.CreateUser(ctx, "Fox", "fox@fbi.example.com")
	fx.CreateUser(ctx, "a.b", "ab@example.com")

	h := users.NewHandler(db, zap.NewNop())

	tests := []struct {
		name  string
		q     string
		code  int
		count int
	}{
		{"by name", "scul", http.StatusOK, 1},
		{"by email", "FBI", http.StatusOK, 2},
		{"regex chars are literal", "a.b", http.StatusOK, 1},
		{"missing q", "", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(httptest.NewRequest("GET", "/search?q="+tt.q, nil), me)
			rec := httptest.NewRecorder()
			h.ServeSearch(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var body struct {
				Users []map[string]any `json:"users"`
			}
			testutil.DecodeJSON(t, rec, &body)
			if len(body.Users) != tt.count {
				t.Errorf("got %d users, want %d", len(body.Users), tt.count)
			}
			if strings.Contains(rec.Body.String(), "password") {
				t.Error("search leaked credential fields")
			}
		})
	}
}

func TestServeUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Dana", "dana@example.com")
	h := users.NewHandler(db, zap.NewNop())

	tests := []struct {
		name string
		id   string
		code int
	}{
		{"found", u.ID.Hex(), http.StatusOK},
		{"unknown", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed", "zzz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithChiURLParam(testutil.WithUser(httptest.NewRequest("GET", "/", nil), u), "id", tt.id)
			rec := httptest.NewRecorder()
			h.ServeUser(rec, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given name and email.
// The password hash is a placeholder; use the auth store for login tests.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: "x",
		Name:         name,
		NameCI:       text.Fold(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateBoard inserts a board owned by ownerID. The owner plus any extra
// members are stored in Members.
func (f *Fixtures) CreateBoard(ctx context.Context, title string, ownerID primitive.ObjectID, members ...primitive.ObjectID) models.Board {
	f.t.Helper()

	now := time.Now().UTC()
	b := models.Board{
		ID:        primitive.NewObjectID(),
		Title:     title,
		OwnerID:   ownerID,
		Members:   append([]primitive.ObjectID{ownerID}, members...),
		Lists:     []primitive.ObjectID{},
		Labels:    []models.Label{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("boards").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("failed to create test board: %v", err)
	}
	return b
}

// CreateList inserts a list with the given order and links it from its board.
func (f *Fixtures) CreateList(ctx context.Context, boardID primitive.ObjectID, title string, order int) models.List {
	f.t.Helper()

	now := time.Now().UTC()
	l := models.List{
		ID:        primitive.NewObjectID(),
		Title:     title,
		BoardID:   boardID,
		Order:     order,
		Cards:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("lists").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("failed to create test list: %v", err)
	}
	if _, err := f.db.Collection("boards").UpdateByID(ctx, boardID,
		map[string]any{"$push": map[string]any{"lists": l.ID}}); err != nil {
		f.t.Fatalf("failed to link test list: %v", err)
	}
	return l
}

// CreateCard inserts a card into list (when non-nil) at the given order.
func (f *Fixtures) CreateCard(ctx context.Context, boardID primitive.ObjectID, list *models.List, title string, order int) models.Card {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Card{
		ID:        primitive.NewObjectID(),
		Title:     title,
		BoardID:   boardID,
		Order:     order,
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		Assignees: []primitive.ObjectID{},
		Labels:    []string{},
		Comments:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if list != nil {
		id := list.ID
		c.ListID = &id
	}
	if _, err := f.db.Collection("cards").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test card: %v", err)
	}
	if list != nil {
		if _, err := f.db.Collection("lists").UpdateByID(ctx, list.ID,
			map[string]any{"$push": map[string]any{"cards": c.ID}}); err != nil {
			f.t.Fatalf("failed to link test card: %v", err)
		}
	}
	return c
}

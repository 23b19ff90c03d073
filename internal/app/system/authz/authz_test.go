package authz_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	boardstore "github.com/dalemusser/kanbanhub/internal/app/store/boards"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/authz"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeBoards struct {
	owner   primitive.ObjectID
	members map[primitive.ObjectID]bool
	err     error
}

func (f *fakeBoards) CanAccess(_ context.Context, _, userID primitive.ObjectID) (bool, error) {
	return userID == f.owner || f.members[userID], f.err
}

func (f *fakeBoards) IsOwner(_ context.Context, _, userID primitive.ObjectID) (bool, error) {
	return userID == f.owner, f.err
}

func TestGate_Fake(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	gate := authz.NewGate(&fakeBoards{owner: owner, members: map[primitive.ObjectID]bool{member: true}})
	board := primitive.NewObjectID()
	ctx := context.Background()

	tests := []struct {
		name      string
		user      primitive.ObjectID
		wantRead  bool
		wantOwner bool
	}{
		{"owner", owner, true, true},
		{"member", member, true, false},
		{"stranger", primitive.NewObjectID(), false, false},
		{"nil id", primitive.NilObjectID, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := gate.CanAccess(ctx, tt.user, board)
			if got != tt.wantRead {
				t.Errorf("CanAccess = %v, want %v", got, tt.wantRead)
			}
			got, _ = gate.IsOwner(ctx, tt.user, board)
			if got != tt.wantOwner {
				t.Errorf("IsOwner = %v, want %v", got, tt.wantOwner)
			}
		})
	}
}

func TestGate_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	gate := authz.NewGate(&fakeBoards{err: boom})
	_, err := gate.CanAccess(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestGate_OwnerAccessIndependentOfMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	board := fixtures.CreateBoard(ctx, "B", owner.ID)
	if _, err := db.Collection("boards").UpdateByID(ctx, board.ID,
		map[string]any{"$set": map[string]any{"members": []primitive.ObjectID{}}}); err != nil {
		t.Fatalf("clear members failed: %v", err)
	}

	gate := authz.NewGate(boardstore.New(db))
	ok, err := gate.CanAccess(ctx, owner.ID, board.ID)
	if err != nil {
		t.Fatalf("CanAccess failed: %v", err)
	}
	if !ok {
		t.Error("owner must always have access")
	}
}

func TestUserCtx(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := authz.UserCtx(req); ok {
		t.Error("expected no user")
	}

	req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: "not-hex"}))
	if _, ok := authz.UserCtx(req); ok {
		t.Error("malformed id must fail closed")
	}

	id := primitive.NewObjectID()
	req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: id.Hex()}))
	got, ok := authz.UserCtx(req)
	if !ok || got != id {
		t.Errorf("UserCtx = %v,%v want %v,true", got, ok, id)
	}
}

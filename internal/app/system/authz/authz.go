// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's ObjectID and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// NilObjectID, false, so ok=true always means a valid, authenticated user.
func UserCtx(r *http.Request) (userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return user.ObjectID()
}

// BoardAccess answers owner/member questions about a board.
// boardstore.Store implements it.
type BoardAccess interface {
	CanAccess(ctx context.Context, boardID, userID primitive.ObjectID) (bool, error)
	IsOwner(ctx context.Context, boardID, userID primitive.ObjectID) (bool, error)
}

// Gate decides whether a user may read or write a board.
// A user has access when they own the board or appear in its members;
// ownership alone is enough, independent of the members array.
type Gate struct {
	boards BoardAccess
}

// NewGate builds a Gate over the given board lookups.
func NewGate(boards BoardAccess) *Gate {
	return &Gate{boards: boards}
}

// CanAccess reports whether userID is the owner or a member of boardID.
func (g *Gate) CanAccess(ctx context.Context, userID, boardID primitive.ObjectID) (bool, error) {
	if userID.IsZero() || boardID.IsZero() {
		return false, nil
	}
	return g.boards.CanAccess(ctx, boardID, userID)
}

// IsOwner reports whether userID owns boardID.
func (g *Gate) IsOwner(ctx context.Context, userID, boardID primitive.ObjectID) (bool, error) {
	if userID.IsZero() || boardID.IsZero() {
		return false, nil
	}
	return g.boards.IsOwner(ctx, boardID, userID)
}

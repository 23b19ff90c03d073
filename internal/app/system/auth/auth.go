package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// User is the authenticated caller, as carried in a verified bearer token.
type User struct {
	ID    string
	Email string
}

// ObjectID parses the caller's id. ok is false for a malformed id.
func (u *User) ObjectID() (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(currentUserKey).(*User)
	return u, ok && u != nil
}

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*User, bool) {
	return FromContext(r.Context())
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// BearerToken extracts the raw token from the Authorization header. API
// requests never read it from the URL, where it would end up in access
// logs; only the websocket handshake accepts a query token (see wsauth).
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireBearer verifies the bearer token and injects the caller into the
// request context. Missing or invalid tokens get a 401 JSON error.
func (ti *TokenIssuer) RequireBearer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				respond.Error(w, r, logger, apperr.Unauthorized("Authentication required"))
				return
			}
			claims, err := ti.Verify(raw)
			if err != nil {
				logger.Debug("bearer token rejected", zap.Error(err))
				respond.Error(w, r, logger, apperr.Unauthorized("Invalid or expired token"))
				return
			}
			u := &User{ID: claims.UserID, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

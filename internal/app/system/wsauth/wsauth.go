// internal/app/system/wsauth/wsauth.go
// Package wsauth authenticates WebSocket handshakes and enforces the
// allowed-origin policy before an upgrade.
package wsauth

import (
	"net/http"
	"strings"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Verifier checks a raw access token. *auth.TokenIssuer implements it.
type Verifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// handshakeToken reads the Authorization header, falling back to the
// "token" query parameter because browsers cannot set headers on a
// WebSocket handshake.
func handshakeToken(r *http.Request) string {
	if r.Header.Get("Authorization") != "" {
		return auth.BearerToken(r)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticate resolves the handshake's caller from the bearer token in
// the Authorization header or the "token" query parameter.
func Authenticate(r *http.Request, v Verifier) (primitive.ObjectID, error) {
	raw := handshakeToken(r)
	if raw == "" {
		return primitive.NilObjectID, apperr.Unauthorized("Authentication required")
	}
	claims, err := v.Verify(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("Invalid or expired token")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("Invalid or expired token")
	}
	return id, nil
}

// OriginChecker builds a CheckOrigin func for websocket.Upgrader.
//
// An empty list returns nil, which makes the upgrader fall back to its
// same-host check. "*" allows any origin. Otherwise the Origin header
// must match one entry exactly (case-insensitive, trailing slash ignored).
func OriginChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = normalizeOrigin(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin.
			return true
		}
		_, ok := set[normalizeOrigin(origin)]
		return ok
	}
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}

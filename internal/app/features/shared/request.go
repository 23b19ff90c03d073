// Package shared holds request helpers used by every API feature.
package shared

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller returns the authenticated user's id. Routes are mounted behind
// RequireBearer, so a miss here means a malformed token subject.
func Caller(r *http.Request) (primitive.ObjectID, error) {
	id, ok := authz.UserCtx(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized("Authentication required")
	}
	return id, nil
}

// ParseID parses a hex ObjectID, reporting failure as a validation error.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid id")
	}
	return id, nil
}

// PathID parses the chi URL parameter key as an ObjectID.
func PathID(r *http.Request, key string) (primitive.ObjectID, error) {
	return ParseID(chi.URLParam(r, key))
}

// OptionalID parses s when non-empty. Empty input yields nil.
func OptionalID(s *string) (*primitive.ObjectID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := ParseID(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseIDs parses every element of ss.
func ParseIDs(ss []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// MutationContext bounds a write by timeout without tying it to the client
// connection, so a client that disconnects mid-request does not abort a
// mutation halfway. Request values such as the caller are kept.
func MutationContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
}

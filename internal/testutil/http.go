package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
)

// WithUser adds an authenticated user to the request context, bypassing
// bearer token verification.
func WithUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), &auth.User{
		ID:    u.ID.Hex(),
		Email: u.Email,
	}))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// TestSecret is a signing secret long enough for NewTokenIssuer outside dev.
const TestSecret = "test-secret-0123456789abcdef0123456789"

// NewTokenIssuer returns an issuer with a one-hour validity window.
func NewTokenIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	ti, err := auth.NewTokenIssuer(TestSecret, time.Hour, "kanbanhub")
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	return ti
}

// DecodeJSON unmarshals the recorded response body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// NoAuth stands in for RequireBearer in route tests that inject the user
// with WithUser.
func NoAuth(next http.Handler) http.Handler { return next }

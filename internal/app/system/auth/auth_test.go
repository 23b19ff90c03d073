package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer("test-secret-0123456789abcdef0123456789", time.Hour, "kanbanhub")
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	return ti
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	ti := newIssuer(t)
	id := primitive.NewObjectID().Hex()

	tok, err := ti.Issue(id, "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != id || claims.Email != "a@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	ti := newIssuer(t)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := ti.Issue("u1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	ti.now = time.Now

	if _, err := ti.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ti := newIssuer(t)
	other, _ := NewTokenIssuer("another-secret-0123456789abcdef012345", time.Hour, "kanbanhub")
	tok, _ := other.Issue("u1", "a@example.com")

	if _, err := ti.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	ti := newIssuer(t)
	claims := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "kanbanhub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none failed: %v", err)
	}
	if _, err := ti.Verify(tok); err == nil {
		t.Error("expected unsigned token to be rejected")
	}
}

func TestNewTokenIssuer_Invalid(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour, ""); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewTokenIssuer("s", 0, ""); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{"header", "Bearer abc", "/", "abc"},
		{"lowercase scheme", "bearer abc", "/", "abc"},
		{"wrong scheme", "Basic abc", "/?token=q", ""},
		{"query is ignored", "", "/api/boards?token=xyz", ""},
		{"none", "", "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(req); got != tt.want {
				t.Errorf("BearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireBearer(t *testing.T) {
	ti := newIssuer(t)
	id := primitive.NewObjectID().Hex()
	tok, _ := ti.Issue(id, "a@example.com")

	var seen *User
	h := ti.RequireBearer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentUser(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/boards", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: got %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/boards", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/boards", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != id {
		t.Errorf("expected user %s in context, got %+v", id, seen)
	}
	if oid, ok := seen.ObjectID(); !ok || oid.Hex() != id {
		t.Error("ObjectID should parse the caller id")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/boards?token="+tok, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("query token on an API route: got %d, want 401", rec.Code)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "secret1") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "secret2") {
		t.Error("expected wrong password to fail")
	}
}

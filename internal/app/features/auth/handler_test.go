package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	authfeature "github.com/dalemusser/kanbanhub/internal/app/features/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/indexes"
	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type recordingMail struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *recordingMail) SendAsync(e mailer.Email) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
}

type authBody struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

func newTestHandler(t *testing.T) (*authfeature.Handler, *recordingMail, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	mail := &recordingMail{}
	h := authfeature.NewHandler(db, testutil.NewTokenIssuer(t), mail, "KanbanHub", "https://kanban.example.com", zap.NewNop())
	return h, mail, testutil.NewFixtures(t, db)
}

func TestRegister_Success(t *testing.T) {
	h, mail, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewJSONRequest("POST", "/register", `{"email":" Ana@Example.com ","password":"secret1","name":"Ana"}`)
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body authBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Token == "" || body.User.Email != "ana@example.com" || body.Message != "User registered successfully" {
		t.Errorf("unexpected body: %+v", body)
	}
	if _, err := h.Tokens.Verify(body.Token); err != nil {
		t.Errorf("issued token does not verify: %v", err)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not carry the password hash")
	}

	var stored bson.M
	if err := fx.DB().Collection("users").FindOne(ctx, bson.M{"email": "ana@example.com"}).Decode(&stored); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored["password_hash"] == "secret1" {
		t.Error("password stored in clear")
	}

	if len(mail.sent) != 1 || mail.sent[0].To != "ana@example.com" {
		t.Errorf("welcome email = %+v", mail.sent)
	}
}

func TestRegister_Validation(t *testing.T) {
	h, _, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Taken", "taken@example.com")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad email", `{"email":"nope","password":"secret1","name":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"123","name":"A"}`, http.StatusBadRequest},
		{"missing name", `{"email":"a@example.com","password":"secret1","name":"  "}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
		{"duplicate", `{"email":"TAKEN@example.com","password":"secret1","name":"A"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest("POST", "/register", tt.body))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.code, rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h, _, _ := newTestHandler(t)

	reg := httptest.NewRecorder()
	h.HandleRegister(reg, testutil.NewJSONRequest("POST", "/register", `{"email":"bo@example.com","password":"secret1","name":"Bo"}`))
	if reg.Code != http.StatusCreated {
		t.Fatalf("register status = %d", reg.Code)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"email":"BO@example.com","password":"secret1"}`, http.StatusOK},
		{"wrong password", `{"email":"bo@example.com","password":"secret2"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"who@example.com","password":"secret1"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"bo@example.com"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/login", tt.body))
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code == http.StatusOK {
				var body authBody
				testutil.DecodeJSON(t, rec, &body)
				if body.Token == "" || body.User.Name != "Bo" {
					t.Errorf("unexpected body: %+v", body)
				}
			}
		})
	}
}

func TestMe_ThroughRoutes(t *testing.T) {
	h, _, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Cy", "cy@example.com")

	router := authfeature.Routes(h, nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.User.ID != u.ID.Hex() || body.User.Name != "Cy" {
		t.Errorf("user = %+v", body.User)
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	h, _, _ := newTestHandler(t)
	limiter := ratelimit.New(2, time.Minute)
	defer limiter.Close()
	router := authfeature.Routes(h, limiter, nil, zap.NewNop())

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := testutil.NewJSONRequest("POST", "/login", `{"email":"x@example.com","password":"secret1"}`)
		req.RemoteAddr = "203.0.113.9:5000"
		router.ServeHTTP(rec, req)
		last = rec.Code
		if i == 2 && rec.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After on limited response")
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}

package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/kanbanhub/internal/app/system/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/workers"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "kanbanhub_test",
		JWTSecret:      "0123456789abcdef0123456789abcdef-prod",
		JWTExpiry:      time.Hour,
		JWTIssuer:      "kanbanhub",
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		AppName:        "KanbanHub",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid prod", "prod", func(*AppConfig) {}, false},
		{"bad mongo uri", "prod", func(c *AppConfig) { c.MongoURI = "postgres://x" }, true},
		{"default secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"default secret in dev", "dev", func(c *AppConfig) { c.JWTSecret = defaultJWTSecret }, false},
		{"zero expiry", "dev", func(c *AppConfig) { c.JWTExpiry = 0 }, true},
		{"zero rate limit", "dev", func(c *AppConfig) { c.AuthRateLimit = 0 }, true},
		{"negative retention", "dev", func(c *AppConfig) { c.NotifyRetention = -time.Hour }, true},
		{"retention disabled", "dev", func(c *AppConfig) { c.NotifyRetention = 0 }, false},
		{"trusted proxies", "prod", func(c *AppConfig) { c.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1"} }, false},
		{"bad trusted proxy", "prod", func(c *AppConfig) { c.TrustedProxies = []string{"10.0.0.0/99"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.test , ,http://b.test:5173,")
	if len(got) != 2 || got[0] != "https://a.test" || got[1] != "http://b.test:5173" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("blank value should give no origins")
	}
}

func TestNewAuthLimiter_InMemoryWithoutRedis(t *testing.T) {
	l := newAuthLimiter(validAppConfig(), nil)
	mem, ok := l.(*ratelimit.Limiter)
	if !ok {
		t.Fatalf("limiter = %T, want *ratelimit.Limiter", l)
	}
	mem.Close()
}

// newTestDeps builds DBDeps against the per-test database without
// ConnectDB, so no Redis or broker is needed.
func newTestDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Mailer:        mailer.New(mailer.Config{}, testLogger()),
		Queue:         workers.NewQueue(testLogger(), 16, 1, time.Second),
		Rooms:         realtime.NewRegistry(),
		AuthLimiter:   ratelimit.New(100, time.Minute),
		Jobs:          tasks.NewScheduler(testLogger(), time.Second),
	}
	t.Cleanup(func() {
		deps.Jobs.Stop()
		deps.Rooms.CloseAll()
		deps.Queue.Stop()
		deps.AuthLimiter.(*ratelimit.Limiter).Close()
	})
	return deps
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestBuildHandler_EndToEnd(t *testing.T) {
	deps := newTestDeps(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(coreCfg, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	if code := call(t, srv, "GET", "/health", "", nil, nil); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}

	var reg struct {
		Token string `json:"token"`
	}
	code := call(t, srv, "POST", "/api/auth/register", "",
		map[string]string{"email": "alice@example.com", "password": "secret1", "name": "Alice"}, &reg)
	if code != http.StatusCreated || reg.Token == "" {
		t.Fatalf("register = %d, token %q", code, reg.Token)
	}

	if code := call(t, srv, "GET", "/api/boards", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("boards without token = %d, want 401", code)
	}

	var created struct {
		Board struct {
			ID string `json:"id"`
		} `json:"board"`
	}
	if code := call(t, srv, "POST", "/api/boards", reg.Token, map[string]string{"title": "Launch"}, &created); code != http.StatusCreated {
		t.Fatalf("create board = %d", code)
	}

	var detail struct {
		Board struct {
			Title string `json:"title"`
		} `json:"board"`
		Lists []json.RawMessage `json:"lists"`
	}
	if code := call(t, srv, "GET", "/api/boards/"+created.Board.ID, reg.Token, nil, &detail); code != http.StatusOK {
		t.Fatalf("get board = %d", code)
	}
	if detail.Board.Title != "Launch" {
		t.Errorf("title = %q", detail.Board.Title)
	}

	var miss struct {
		Message string `json:"message"`
	}
	if code := call(t, srv, "GET", "/api/nowhere", reg.Token, nil, &miss); code != http.StatusNotFound || miss.Message != "Route not found" {
		t.Errorf("unknown route = %d %q", code, miss.Message)
	}
}

package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		MongoDatabase:      "threadhub_bootstrap",
		WebhookRateLimit:   20,
		WebhookRateBurst:   40,
		ProfileEditPath:    "/profile/edit",
		ThreadTreeDepth:    2,
		ThreadTreeMaxDepth: 8,
		PageSize:           20,
		MaxPageSize:        100,
		AuditLogWebhook:    "log",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) { c.MongoURI = "mongodb://localhost:27017" }, false},
		{"empty uri is degraded, not fatal", func(c *AppConfig) { c.MongoURI = "" }, false},
		{"malformed uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"depth above max", func(c *AppConfig) { c.ThreadTreeDepth = 9 }, true},
		{"negative depth", func(c *AppConfig) { c.ThreadTreeMaxDepth = -1 }, true},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogWebhook = "sometimes" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDegradedMode(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core := &config.CoreConfig{}
	cfg := testAppConfig()

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB with empty URI should not fail: %v", err)
	}
	defer Shutdown(ctx, core, cfg, deps, testLogger())

	if !deps.Degraded() {
		t.Fatal("expected degraded deps")
	}
	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema in degraded mode: %v", err)
	}

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		method, target string
		status         int
	}{
		{http.MethodGet, "/health", http.StatusServiceUnavailable},
		{http.MethodGet, "/threads", http.StatusServiceUnavailable},
		{http.MethodGet, "/users/user_1", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/webhook/clerk", http.StatusInternalServerError}, // no secret configured
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader("{}")))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestConnectedLifecycle(t *testing.T) {
	// SetupTestDB skips when no server answers.
	testutil.SetupTestDB(t)

	uri := os.Getenv("THREADHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = testutil.DefaultTestURI
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core := &config.CoreConfig{}
	cfg := testAppConfig()
	cfg.MongoURI = uri
	cfg.MongoDatabase = "threadhub_bootstrap_test"

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB failed: %v", err)
	}
	defer func() {
		_ = deps.DB.Drop(ctx)
		if err := Shutdown(ctx, core, cfg, deps, testLogger()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}()

	if deps.Degraded() {
		t.Fatal("expected a connected database")
	}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema #%d failed: %v", i+1, err)
		}
	}

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		target string
		status int
	}{
		{"/health", http.StatusOK},
		{"/threads", http.StatusOK},
		{"/users/user_missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.status {
			t.Errorf("GET %s: status = %d, want %d", tt.target, rec.Code, tt.status)
		}
	}
}

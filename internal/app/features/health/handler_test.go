package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/features/health"
	"github.com/dalemusser/threadhub/internal/app/system/docstore"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	// SetupTestDB skips when no server answers.
	testutil.SetupTestDB(t)

	uri := os.Getenv("THREADHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = testutil.DefaultTestURI
	}
	conn := docstore.New(docstore.Config{URI: uri, Database: "threadhub_health"}, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := conn.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Disconnect(ctx)

	rec, body := serve(t, health.NewHandler(conn, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServe_Degraded(t *testing.T) {
	tests := []struct {
		name string
		conn *docstore.Conn
	}{
		{"no handle", nil},
		{"never connected", docstore.New(docstore.Config{URI: "mongodb://localhost:1", Database: "x"}, zap.NewNop())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, health.NewHandler(tt.conn, zap.NewNop()))

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
			}
			if body.Status != "error" || body.Database != "disconnected" || body.Message != "Database unavailable" {
				t.Errorf("unexpected body: %+v", body)
			}
		})
	}
}

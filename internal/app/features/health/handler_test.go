package health_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/features/health"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
	Message  string `json:"message"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest(http.MethodGet, "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" {
		t.Errorf("status: got %q, want %q", body.Status, "ok")
	}
	if body.Database != "connected" {
		t.Errorf("database: got %q, want %q", body.Database, "connected")
	}
	if body.Uptime == "" {
		t.Error("expected uptime to be reported")
	}
}

// unreachableClient returns a client that was never able to reach a
// server, so every ping fails.
func unreachableClient(t *testing.T) *mongo.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("mongo.Connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestServe_DatabaseDisconnected(t *testing.T) {
	client := unreachableClient(t)

	handler := health.NewHandler(client, zap.NewNop())
	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest(http.MethodGet, "/health"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "error" || body.Database != "disconnected" {
		t.Errorf("got %+v, want error/disconnected", body)
	}
}

func TestRoutes_LivenessIgnoresDatabase(t *testing.T) {
	router := health.Routes(health.NewHandler(unreachableClient(t), zap.NewNop()))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodHead, "/live", http.StatusOK},
		{http.MethodGet, "/", http.StatusServiceUnavailable},
		{http.MethodHead, "/", http.StatusServiceUnavailable},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.want)
		})
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/live"))
	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" || body.Database != "" || body.Uptime == "" {
		t.Errorf("unexpected liveness body %+v", body)
	}
}

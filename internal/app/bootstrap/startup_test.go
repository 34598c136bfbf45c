package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "assembly_hub",
		JWTSecret:            strings.Repeat("s", minJWTSecretLen),
		CheckinOTPTTL:        10 * time.Minute,
		VotingOTPTTL:         5 * time.Minute,
		OTPAttemptsPerMinute: 10,
		MinutesTimeZone:      "America/Sao_Paulo",
		AuditLogGovernance:   "all",
		AuditLogAttendance:   "db",
		MetricsEnabled:       true,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		core    *config.CoreConfig
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "empty database", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "short secret", mutate: func(c *AppConfig) { c.JWTSecret = "short" }, wantErr: "jwt_secret"},
		{name: "zero ttl", mutate: func(c *AppConfig) { c.VotingOTPTTL = 0 }, wantErr: "otp_ttl"},
		{name: "no attempts", mutate: func(c *AppConfig) { c.OTPAttemptsPerMinute = 0 }, wantErr: "otp_attempts_per_minute"},
		{name: "negative cleanup interval", mutate: func(c *AppConfig) { c.OTPCleanupInterval = -time.Second }, wantErr: "otp_cleanup_interval"},
		{name: "unknown zone", mutate: func(c *AppConfig) { c.MinutesTimeZone = "Mars/Olympus" }, wantErr: "minutes_time_zone"},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAttendance = "everything" }, wantErr: "audit_log_attendance"},
		{
			name:    "default secret in prod",
			mutate:  func(c *AppConfig) { c.JWTSecret = "dev-only-change-me-please-0123456789ABCDEF" },
			core:    &config.CoreConfig{Env: "prod"},
			wantErr: "production",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStartupAndBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	cfg := validConfig()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Runtime: &Runtime{}}

	if err := EnsureSchema(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := Startup(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	t.Cleanup(deps.Runtime.Limiter.Stop)
	if deps.Runtime.Cleanup != nil {
		t.Error("expected the code cleanup worker to be disabled with a zero interval")
	}

	h, err := BuildHandler(nil, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	tenant := fx.CreateTenant(ctx, "Residencial Aurora", 2)
	token, err := deps.Runtime.Verifier.Sign(auth.SessionUser{
		ID: "operator-1", Name: "Síndica", Role: "syndic", TenantID: tenant.ID.Hex(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	residentToken, err := deps.Runtime.Verifier.Sign(auth.SessionUser{
		ID: "resident-1", Role: "resident", TenantID: tenant.ID.Hex(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	adminToken, err := deps.Runtime.Verifier.Sign(auth.SessionUser{
		ID: "admin-1", Role: "admin", TenantID: tenant.ID.Hex(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"api without token", http.MethodGet, "/api/assemblies", "", "", http.StatusUnauthorized},
		{"api with garbage token", http.MethodGet, "/api/assemblies", "garbage", "", http.StatusUnauthorized},
		{"api with resident role", http.MethodGet, "/api/assemblies", residentToken, "", http.StatusForbidden},
		{"api list", http.MethodGet, "/api/assemblies", token, "", http.StatusOK},
		{"api create", http.MethodPost, "/api/assemblies", token, `{"title":"AGO","scheduled_at":"2030-01-10T22:00:00Z"}`, http.StatusCreated},
		{"nested item route", http.MethodGet, "/api/assemblies/000000000000000000000000/items", token, "", http.StatusNotFound},
		{"public unknown link", http.MethodGet, "/public/checkin/unknown", "", "", http.StatusNotFound},
		{"announcements", http.MethodGet, "/api/announcements", token, "", http.StatusOK},
		{"audit requires admin", http.MethodGet, "/api/audit", token, "", http.StatusForbidden},
		{"audit as admin", http.MethodGet, "/api/audit", adminToken, "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nowhere", "", "", http.StatusNotFound},
		{"public unknown session", http.MethodGet, "/public/session/unknown", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s: got %d, want %d (body: %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
		})
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	if _, err := BuildHandler(nil, validConfig(), DBDeps{Runtime: &Runtime{}}, testLogger()); err == nil {
		t.Fatal("expected error when startup has not run")
	}
}

package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long"

func newVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(testSecret, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	return v
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	if _, err := auth.NewVerifier("", zap.NewNop()); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	v := newVerifier(t)
	tok, err := v.Sign(auth.SessionUser{ID: "u1", Name: "Síndica Ana", Role: "Syndic", TenantID: "t1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	u, err := v.Parse(tok)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if u.ID != "u1" || u.Name != "Síndica Ana" || u.TenantID != "t1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.Role != "syndic" {
		t.Errorf("role should be lowercased, got %q", u.Role)
	}
}

func TestParse_Rejects(t *testing.T) {
	v := newVerifier(t)
	other, _ := auth.NewVerifier("another-secret-that-is-32-chars-long!", zap.NewNop())

	expired, _ := v.Sign(auth.SessionUser{ID: "u1", Role: "admin"}, -time.Minute)
	forged, _ := other.Sign(auth.SessionUser{ID: "u1", Role: "admin"}, time.Hour)
	noRole, _ := v.Sign(auth.SessionUser{ID: "u1"}, time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString([]byte(testSecret))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"expired":   expired,
		"forged":    forged,
		"no role":   noRole,
		"no expiry": noExp,
		"alg none":  none,
		"garbage":   "not-a-jwt",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Parse(tok); err == nil {
				t.Error("expected token to be rejected")
			}
		})
	}
}

func TestLoadUser(t *testing.T) {
	v := newVerifier(t)
	tok, _ := v.Sign(auth.SessionUser{ID: "u1", Role: "admin"}, time.Hour)

	var seen *auth.SessionUser
	h := v.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest("GET", "/api/assemblies", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || seen == nil || seen.ID != "u1" {
			t.Errorf("expected user in context, code=%d user=%+v", rec.Code, seen)
		}
	})

	t.Run("no header", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/assemblies", nil))
		if rec.Code != http.StatusOK || seen != nil {
			t.Errorf("expected anonymous pass-through, code=%d user=%+v", rec.Code, seen)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/assemblies", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRequireSignedIn(t *testing.T) {
	h := auth.RequireSignedIn(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "u1", Role: "admin"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	h := auth.RequireRole("admin", "syndic")(okHandler())

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"allowed role", &auth.SessionUser{ID: "u1", Role: "syndic"}, http.StatusOK},
		{"allowed role mixed case", &auth.SessionUser{ID: "u1", Role: "Admin"}, http.StatusOK},
		{"other role", &auth.SessionUser{ID: "u1", Role: "resident"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{"generated", "", false},
		{"reused", "abc-123", true},
		{"too long", strings.Repeat("x", maxInbound+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.inbound != "" {
				req.Header.Set(Header, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(Header)
			if got != seen {
				t.Errorf("header %q does not match context %q", got, seen)
			}
			if tt.reuse && got != tt.inbound {
				t.Errorf("expected inbound id to be reused, got %q", got)
			}
			if !tt.reuse {
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("expected generated uuid, got %q", got)
				}
			}
		})
	}
}

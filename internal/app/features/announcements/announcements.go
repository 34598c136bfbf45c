// internal/app/features/announcements/announcements.go
package announcements

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/condovote/assemblyhub/internal/app/system/htmlsanitize"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const maxListLimit = 200

type createRequest struct {
	TenantID string `json:"tenant_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=5000"`
}

// List handles GET /api/announcements?tenant_id=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := authz.ScopeTenant(r, r.URL.Query().Get("tenant_id"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			jsonapi.Error(w, r, h.Log, apperr.Validation("limit must be between 1 and 200"))
			return
		}
		limit = int64(n)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "announcements list")
	defer cancel()

	list, err := h.Store.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		h.Log.Error("failed to list announcements", zap.Error(err), zap.String("path", r.URL.Path))
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"announcements": list})
}

// Create handles POST /api/announcements. Title and body are stored as
// plain text.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	tenantID, err := authz.ScopeTenant(r, req.TenantID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	title := htmlsanitize.Line(req.Title)
	body := strings.TrimSpace(htmlsanitize.PlainText(req.Body))
	if title == "" || body == "" {
		jsonapi.Error(w, r, h.Log, apperr.Validation("title and body must contain text"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement create")
	defer cancel()

	if err := h.Store.SendAnnouncement(ctx, tenantID, title, body); err != nil {
		h.Log.Error("failed to send announcement", zap.Error(err))
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, map[string]any{"tenant_id": tenantID, "title": title, "body": body})
}

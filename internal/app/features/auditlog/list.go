// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// ServeList handles GET /api/audit with optional category, event_type,
// assembly_id, start_date, end_date (YYYY-MM-DD) and page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tenantID, err := authz.ScopeTenant(r, q.Get("tenant_id"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}

	category := strings.TrimSpace(q.Get("category"))
	if category != "" && eventTypesForCategory(category) == nil {
		jsonapi.Error(w, r, h.Log, apperr.Validation("unknown category"))
		return
	}

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		TenantID:  &tenantID,
		Category:  category,
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if filter.AssemblyID, err = jsonapi.OptionalObjectID(q.Get("assembly_id"), "assembly_id"); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			jsonapi.Error(w, r, h.Log, apperr.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			jsonapi.Error(w, r, h.Log, apperr.Validation("end_date must be YYYY-MM-DD"))
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		jsonapi.Error(w, r, h.Log, err)
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	jsonapi.OK(w, listResponse{
		Events:     events,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
	})
}

// internal/app/features/assemblies/assemblies.go
package assemblies

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	TenantID    string    `json:"tenant_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type updateRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ServeList handles GET /api/assemblies?status=&tenant_id=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := authz.ScopeTenant(r, r.URL.Query().Get("tenant_id"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list assemblies")
	defer cancel()
	list, err := h.Svc.ListAssemblies(ctx, tenantID, r.URL.Query().Get("status"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"assemblies": list})
}

// HandleCreate handles POST /api/assemblies.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create assembly")
	defer cancel()
	a, err := h.Svc.CreateAssembly(ctx, governance.NewAssembly{
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		CreatedByID: currentUserID(r),
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, a)
}

// ServeAssembly handles GET /api/assemblies/{id}.
func (h *Handler) ServeAssembly(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	jsonapi.OK(w, a)
}

// HandleUpdate handles PUT /api/assemblies/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update assembly")
	defer cancel()
	updated, err := h.Svc.UpdateAssembly(ctx, a.ID, governance.AssemblyChanges{
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, updated)
}

// HandleDelete handles DELETE /api/assemblies/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete assembly")
	defer cancel()
	if err := h.Svc.DeleteAssembly(ctx, a.ID); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.NoContent(w)
}

// HandleStart handles POST /api/assemblies/{id}/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.StartAssembly)
}

// HandleFinish handles POST /api/assemblies/{id}/finish.
func (h *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.FinishAssembly)
}

// HandleCancel handles POST /api/assemblies/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.CancelAssembly)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, step func(context.Context, primitive.ObjectID) (models.Assembly, error)) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "assembly transition")
	defer cancel()
	a, err := step(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, a)
}

// ServeEvents handles GET /api/assemblies/{id}/events?limit=.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list assembly events")
	defer cancel()
	events, err := h.Audit.ListByAssembly(ctx, a.ID, limit)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"events": events})
}

// currentUserID returns the operator's id when it is an ObjectID.
func currentUserID(r *http.Request) *primitive.ObjectID {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil
	}
	return &id
}

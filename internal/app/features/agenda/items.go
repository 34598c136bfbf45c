// internal/app/features/agenda/items.go
package agenda

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/tally"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
)

type createRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=5000"`
	RequiresQuorum bool   `json:"requires_quorum"`
	QuorumType     string `json:"quorum_type" validate:"omitempty,oneof=simple qualified unanimous"`
	OrderIndex     *int   `json:"order_index,omitempty" validate:"omitempty,min=0"`
}

type updateRequest struct {
	Title          *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	RequiresQuorum *bool   `json:"requires_quorum,omitempty"`
	QuorumType     *string `json:"quorum_type,omitempty" validate:"omitempty,oneof=simple qualified unanimous"`
	OrderIndex     *int    `json:"order_index,omitempty" validate:"omitempty,min=0"`
}

type closeResponse struct {
	Item   models.AgendaItem `json:"item"`
	Result tally.Result      `json:"result"`
}

// ServeList handles GET /api/assemblies/{id}/items.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list items")
	defer cancel()
	items, err := h.Svc.ListItems(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"items": items})
}

// HandleCreate handles POST /api/assemblies/{id}/items.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create item")
	defer cancel()
	it, err := h.Svc.CreateItem(ctx, a.ID, governance.NewItem{
		Title:          req.Title,
		Description:    req.Description,
		RequiresQuorum: req.RequiresQuorum,
		QuorumType:     req.QuorumType,
		OrderIndex:     req.OrderIndex,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, it)
}

// ServeItem handles GET /api/assemblies/{id}/items/{itemID}.
func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	jsonapi.OK(w, it)
}

// HandleUpdate handles PUT /api/assemblies/{id}/items/{itemID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update item")
	defer cancel()
	updated, err := h.Svc.UpdateItem(ctx, it.ID, governance.ItemChanges{
		Title:          req.Title,
		Description:    req.Description,
		RequiresQuorum: req.RequiresQuorum,
		QuorumType:     req.QuorumType,
		OrderIndex:     req.OrderIndex,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, updated)
}

// HandleDelete handles DELETE /api/assemblies/{id}/items/{itemID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete item")
	defer cancel()
	if err := h.Svc.DeleteItem(ctx, it.ID); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.NoContent(w)
}

// HandleStartVoting handles POST /api/assemblies/{id}/items/{itemID}/start-voting.
func (h *Handler) HandleStartVoting(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "start voting")
	defer cancel()
	it, err := h.Svc.StartVoting(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, it)
}

// HandleCloseVoting handles POST /api/assemblies/{id}/items/{itemID}/close-voting.
func (h *Handler) HandleCloseVoting(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "close voting")
	defer cancel()
	closed, res, err := h.Svc.CloseVoting(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, closeResponse{Item: closed, Result: res})
}

// ServeResult handles GET /api/assemblies/{id}/items/{itemID}/result.
func (h *Handler) ServeResult(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "vote result")
	defer cancel()
	res, err := h.Svc.GetVoteResult(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, res)
}

// HandleGenerateOTP handles POST /api/assemblies/{id}/items/{itemID}/otp.
func (h *Handler) HandleGenerateOTP(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "generate voting otp")
	defer cancel()
	st, err := h.Svc.GenerateVotingOTP(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, st)
}

// ServeOTP handles GET /api/assemblies/{id}/items/{itemID}/otp.
func (h *Handler) ServeOTP(w http.ResponseWriter, r *http.Request) {
	_, it, ok := h.Scope.AssemblyItem(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get voting otp")
	defer cancel()
	st, err := h.Svc.GetVotingOTP(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, st)
}

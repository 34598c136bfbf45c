// internal/app/features/attendance/participants.go
package attendance

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/features/shared/scope"
	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type registerRequest struct {
	UnitID        string         `json:"unit_id" validate:"required,len=24,hexadecimal"`
	ResidentID    string         `json:"resident_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
	ProxyName     string         `json:"proxy_name,omitempty" validate:"max=200"`
	ProxyDocument string         `json:"proxy_document,omitempty" validate:"max=50"`
	VotingWeight  *models.Weight `json:"voting_weight,omitempty"`
}

type weightRequest struct {
	VotingWeight *models.Weight `json:"voting_weight" validate:"required"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ServeStatus handles GET /api/assemblies/{id}/attendance.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance status")
	defer cancel()
	st, err := h.Svc.GetAttendanceStatus(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, st)
}

// ServeList handles GET /api/assemblies/{id}/participants.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list participants")
	defer cancel()
	ps, err := h.Svc.ListParticipants(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"participants": ps})
}

// ServePresent handles GET /api/assemblies/{id}/participants/present.
func (h *Handler) ServePresent(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list present participants")
	defer cancel()
	ps, err := h.Svc.ListPresentParticipants(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"participants": ps})
}

// HandleRegister handles POST /api/assemblies/{id}/participants.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	var req registerRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	unitID, err := jsonapi.ParseObjectID(req.UnitID, "unit_id")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	residentID, err := jsonapi.OptionalObjectID(req.ResidentID, "resident_id")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register participant")
	defer cancel()
	p, err := h.Svc.RegisterParticipant(ctx, a.ID, governance.NewParticipant{
		UnitID:        unitID,
		ResidentID:    residentID,
		ProxyName:     req.ProxyName,
		ProxyDocument: req.ProxyDocument,
		Weight:        req.VotingWeight,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, p)
}

// HandleWeight handles PUT /api/assemblies/{id}/participants/{participantID}/weight.
func (h *Handler) HandleWeight(w http.ResponseWriter, r *http.Request) {
	a, pid, ok := h.participant(w, r)
	if !ok {
		return
	}
	var req weightRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update weight")
	defer cancel()
	p, err := h.Svc.UpdateWeight(ctx, a.ID, pid, *req.VotingWeight)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, p)
}

// HandleApprove handles POST /api/assemblies/{id}/participants/{participantID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	a, pid, ok := h.participant(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approve participant")
	defer cancel()
	p, err := h.Svc.ApproveParticipant(ctx, a.ID, pid)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, p)
}

// HandleReject handles POST /api/assemblies/{id}/participants/{participantID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	a, pid, ok := h.participant(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reject participant")
	defer cancel()
	p, err := h.Svc.RejectParticipant(ctx, a.ID, pid, req.Reason)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, p)
}

// HandleRemove handles DELETE /api/assemblies/{id}/participants/{participantID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	a, pid, ok := h.participant(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "remove participant")
	defer cancel()
	if err := h.Svc.RemoveParticipant(ctx, a.ID, pid); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.NoContent(w)
}

func (h *Handler) participant(w http.ResponseWriter, r *http.Request) (models.Assembly, primitive.ObjectID, bool) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return a, primitive.NilObjectID, false
	}
	pid, err := jsonapi.ObjectID(r, scope.ParticipantParam)
	if err != nil {
		jsonapi.Error(w, r, h.Log, apperr.NotFound("participant not found"))
		return a, primitive.NilObjectID, false
	}
	return a, pid, true
}

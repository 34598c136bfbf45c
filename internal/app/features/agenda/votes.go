// internal/app/features/agenda/votes.go
package agenda

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/features/shared/scope"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
)

type castRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,len=24,hexadecimal"`
	Choice        string `json:"choice" validate:"required,oneof=YES NO ABSTENTION"`
}

type votedResponse struct {
	HasVoted bool         `json:"has_voted"`
	Vote     *models.Vote `json:"vote,omitempty"`
}

// HandleCastVote handles POST /api/items/{itemID}/votes. The operator
// records a vote on behalf of a present participant.
func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	it, ok := h.Scope.Item(w, r)
	if !ok {
		return
	}
	var req castRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	pid, err := jsonapi.ParseObjectID(req.ParticipantID, "participant_id")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "cast vote")
	defer cancel()
	v, err := h.Svc.CastVote(ctx, it.ID, pid, req.Choice)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, v)
}

// ServeSummary handles GET /api/items/{itemID}/votes.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	it, ok := h.Scope.Item(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "vote summary")
	defer cancel()
	res, err := h.Svc.GetSummary(ctx, it.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, res)
}

// ServeCheckVoted handles GET /api/items/{itemID}/votes/{participantID}.
func (h *Handler) ServeCheckVoted(w http.ResponseWriter, r *http.Request) {
	it, ok := h.Scope.Item(w, r)
	if !ok {
		return
	}
	pid, err := jsonapi.ObjectID(r, scope.ParticipantParam)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check voted")
	defer cancel()
	voted, v, err := h.Svc.CheckVoted(ctx, it.ID, pid)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, votedResponse{HasVoted: voted, Vote: v})
}

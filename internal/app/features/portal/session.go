// internal/app/features/portal/session.go
package portal

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type sessionResponse struct {
	Participant models.Participant `json:"participant"`
	Assembly    models.Assembly    `json:"assembly"`
	CanVote     bool               `json:"can_vote"`
}

type itemResponse struct {
	Item     models.AgendaItem `json:"item"`
	HasVoted bool              `json:"has_voted"`
	Vote     *models.Vote      `json:"vote,omitempty"`
}

type voteRequest struct {
	Choice string `json:"choice" validate:"required,oneof=YES NO ABSTENTION"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

func newSessionResponse(s governance.Session) sessionResponse {
	return sessionResponse{Participant: s.Participant, Assembly: s.Assembly, CanVote: s.CanVote}
}

// ServeSession handles GET /public/session/{sessionToken}.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate session")
	defer cancel()
	sess, err := h.Svc.ValidateSession(ctx, chi.URLParam(r, "sessionToken"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, newSessionResponse(sess))
}

// ServeAgenda handles GET /public/session/{sessionToken}/agenda.
func (h *Handler) ServeAgenda(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session agenda")
	defer cancel()
	sess, items, err := h.Svc.SessionAgenda(ctx, chi.URLParam(r, "sessionToken"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{
		"session": newSessionResponse(sess),
		"items":   items,
	})
}

// ServeVotes handles GET /public/session/{sessionToken}/votes.
func (h *Handler) ServeVotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session votes")
	defer cancel()
	votes, err := h.Svc.SessionVotes(ctx, chi.URLParam(r, "sessionToken"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]any{"votes": votes})
}

// ServeItem handles GET /public/session/{sessionToken}/items/{itemID}.
func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := jsonapi.ObjectID(r, "itemID")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "session item")
	defer cancel()
	item, err := h.Svc.SessionItem(ctx, chi.URLParam(r, "sessionToken"), itemID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, itemResponse{Item: item.Item, HasVoted: item.HasVoted, Vote: item.Vote})
}

// HandleVote handles POST /public/session/{sessionToken}/items/{itemID}/vote.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "sessionToken")
	if !h.allow(w, r, token) {
		return
	}
	itemID, err := jsonapi.ObjectID(r, "itemID")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	var req voteRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "cast vote")
	defer cancel()
	v, err := h.Svc.CastVoteBySession(ctx, token, itemID, req.OTP, req.Choice)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, v)
}

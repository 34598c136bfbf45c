// internal/app/features/portal/checkin.go
package portal

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type checkinRequest struct {
	UnitID        string `json:"unit_id" validate:"required,len=24,hexadecimal"`
	OTP           string `json:"otp" validate:"required,len=6,numeric"`
	ResidentID    string `json:"resident_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
	ProxyName     string `json:"proxy_name,omitempty" validate:"max=200"`
	ProxyDocument string `json:"proxy_document,omitempty" validate:"max=50"`
}

type checkinResponse struct {
	Participant  models.Participant `json:"participant"`
	SessionToken string             `json:"session_token"`
	Reentry      bool               `json:"reentry"`
}

type checkoutRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,len=24,hexadecimal"`
}

type otpRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// ServeToken handles GET /public/checkin/{token}.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate checkin token")
	defer cancel()
	info, err := h.Svc.ValidateToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, info)
}

// HandleCheckin handles POST /public/checkin/{token}.
func (h *Handler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !h.allow(w, r, token) {
		return
	}
	var req checkinRequest
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "checkin")
	defer cancel()
	res, err := h.Svc.Checkin(ctx, governance.CheckinRequest{
		CheckinToken:  token,
		UnitID:        unitID,
		OTP:           req.OTP,
		ResidentID:    residentID,
		ProxyName:     req.ProxyName,
		ProxyDocument: req.ProxyDocument,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	status := http.StatusCreated
	if res.Reentry {
		status = http.StatusOK
	}
	jsonapi.Write(w, status, checkinResponse{
		Participant:  res.Participant,
		SessionToken: res.SessionToken,
		Reentry:      res.Reentry,
	})
}

// HandleCheckout handles POST /public/checkin/{token}/checkout.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	pid, err := jsonapi.ParseObjectID(req.ParticipantID, "participant_id")
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "checkout")
	defer cancel()
	p, err := h.Svc.Checkout(ctx, chi.URLParam(r, "token"), pid)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, p)
}

// HandleValidateOTP handles POST /public/checkin/{token}/otp/validate.
func (h *Handler) HandleValidateOTP(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !h.allow(w, r, token) {
		return
	}
	var req otpRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate checkin otp")
	defer cancel()
	valid, err := h.Svc.ValidateCheckinOTP(ctx, token, req.OTP)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, map[string]bool{"valid": valid})
}

// allow applies the code-guessing throttle keyed by client and key.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.Limiter == nil {
		return true
	}
	if ok, reason := h.Limiter.Check(r, key); !ok {
		jsonapi.Error(w, r, h.Log, apperr.RateLimited(reason))
		return false
	}
	return true
}

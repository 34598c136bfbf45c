// internal/app/features/assemblies/checkin.go
package assemblies

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
)

// HandleCheckinToken handles POST /api/assemblies/{id}/checkin-token.
// The previous token stops working.
func (h *Handler) HandleCheckinToken(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "generate checkin token")
	defer cancel()
	token, err := h.Svc.GenerateCheckinToken(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, map[string]string{"checkin_token": token})
}

// HandleGenerateOTP handles POST /api/assemblies/{id}/otp.
func (h *Handler) HandleGenerateOTP(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "generate checkin otp")
	defer cancel()
	st, err := h.Svc.GenerateCheckinOTP(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Created(w, st)
}

// ServeOTP handles GET /api/assemblies/{id}/otp.
func (h *Handler) ServeOTP(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get checkin otp")
	defer cancel()
	st, err := h.Svc.GetCheckinOTP(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, st)
}

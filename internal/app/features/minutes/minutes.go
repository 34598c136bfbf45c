// internal/app/features/minutes/minutes.go
package minutes

import (
	"context"
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type updateRequest struct {
	Content *string `json:"content,omitempty" validate:"omitempty,max=200000"`
	Summary *string `json:"summary,omitempty" validate:"omitempty,max=10000"`
}

// ServeMinutes handles GET /api/assemblies/{id}/minutes.
func (h *Handler) ServeMinutes(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.Svc.GetMinutes)
}

// HandleGenerate handles POST /api/assemblies/{id}/minutes.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusCreated, h.Svc.GenerateMinutes)
}

// HandleUpdate handles PUT /api/assemblies/{id}/minutes.
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update minutes")
	defer cancel()
	m, err := h.Svc.UpdateMinutes(ctx, a.ID, governance.MinutesChanges{
		Content: req.Content,
		Summary: req.Summary,
	})
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.OK(w, m)
}

// HandleSubmit handles POST /api/assemblies/{id}/minutes/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.Svc.SubmitMinutes)
}

// HandleApprove handles POST /api/assemblies/{id}/minutes/approve. The
// signed-in operator is recorded as approver.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	approver := approverID(r)
	h.step(w, r, http.StatusOK, func(ctx context.Context, id primitive.ObjectID) (models.Minutes, error) {
		return h.Svc.ApproveMinutes(ctx, id, approver)
	})
}

// HandlePublish handles POST /api/assemblies/{id}/minutes/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.Svc.PublishMinutes)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, primitive.ObjectID) (models.Minutes, error)) {
	a, ok := h.Scope.Assembly(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "minutes step")
	defer cancel()
	m, err := fn(ctx, a.ID)
	if err != nil {
		jsonapi.Error(w, r, h.Log, err)
		return
	}
	jsonapi.Write(w, status, m)
}

func approverID(r *http.Request) *primitive.ObjectID {
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

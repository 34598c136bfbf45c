// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/requestid"
	"go.uber.org/zap"
)

// Handler renders router-level errors in the same JSON envelope the
// features use.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers requests that match no route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonapi.Error(w, r, h.Log, apperr.NotFound("no route for "+r.URL.Path))
}

// MethodNotAllowed answers requests whose path exists under another method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"error":   "method_not_allowed",
		"message": r.Method + " is not supported on " + r.URL.Path,
	}
	if id := requestid.FromContext(r.Context()); id != "" {
		body["request_id"] = id
	}
	jsonapi.Write(w, http.StatusMethodNotAllowed, body)
}

// internal/app/features/attendance/handler.go
package attendance

import (
	"github.com/condovote/assemblyhub/internal/app/features/shared/scope"
	"github.com/condovote/assemblyhub/internal/app/governance"
	"go.uber.org/zap"
)

// Handler serves the operator view of attendance: quorum status and the
// participant registry.
type Handler struct {
	Svc   *governance.Service
	Scope scope.Loader
	Log   *zap.Logger
}

func NewHandler(svc *governance.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:   svc,
		Scope: scope.Loader{Svc: svc, Log: logger},
		Log:   logger,
	}
}

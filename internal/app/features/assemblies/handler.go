// internal/app/features/assemblies/handler.go
package assemblies

import (
	"github.com/condovote/assemblyhub/internal/app/features/shared/scope"
	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the operator endpoints of the assembly lifecycle: CRUD,
// state transitions, the check-in token and code, and the event trail.
type Handler struct {
	Svc   *governance.Service
	Audit *audit.Store
	Scope scope.Loader
	Log   *zap.Logger
}

func NewHandler(svc *governance.Service, auditStore *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:   svc,
		Audit: auditStore,
		Scope: scope.Loader{Svc: svc, Log: logger},
		Log:   logger,
	}
}

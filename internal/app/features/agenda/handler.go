// internal/app/features/agenda/handler.go
package agenda

import (
	"github.com/condovote/assemblyhub/internal/app/features/shared/scope"
	"github.com/condovote/assemblyhub/internal/app/governance"
	"go.uber.org/zap"
)

// Handler serves agenda items, their voting window and the operator side
// of the vote ledger.
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

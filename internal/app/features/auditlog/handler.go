// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the tenant-wide event trail to operators.
type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given event store and logger.
func NewHandler(auditStore *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Audit: auditStore,
		Log:   logger,
	}
}

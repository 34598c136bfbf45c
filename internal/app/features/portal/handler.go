// internal/app/features/portal/handler.go
package portal

import (
	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves the unauthenticated participant endpoints: check-in by QR
// token and one-time code, and the voting portal behind a session token.
type Handler struct {
	Svc     *governance.Service
	Limiter *ratelimit.OTPLimiter
	Log     *zap.Logger
}

func NewHandler(svc *governance.Service, limiter *ratelimit.OTPLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:     svc,
		Limiter: limiter,
		Log:     logger,
	}
}

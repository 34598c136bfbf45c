// internal/app/features/announcements/handler.go
package announcements

import (
	"github.com/condovote/assemblyhub/internal/app/store/announcements"
	"go.uber.org/zap"
)

// Handler owns the operator view of resident announcements.
type Handler struct {
	Store *announcements.Store
	Log   *zap.Logger
}

// NewHandler constructs an Announcements Handler.
func NewHandler(store *announcements.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Log:   logger,
	}
}

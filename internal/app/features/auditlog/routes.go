// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under the path where this router is mounted
// (typically "/api/audit" from bootstrap).
//
// Access is restricted to admins and superadmins. Admins see their own
// condominium; superadmins may pass tenant_id.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(authz.RoleSuperAdmin, authz.RoleAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}

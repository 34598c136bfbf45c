// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles allowed to operate assemblies.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleSyndic     = "syndic"
)

// OperatorRoles may manage assemblies of their own tenant.
var OperatorRoles = []string{RoleSuperAdmin, RoleAdmin, RoleSyndic}

// UserCtx returns the user's role (lowercased), name, tenant and a found flag.
// A malformed tenant claim yields NilObjectID.
func UserCtx(r *http.Request) (role string, name string, tenantID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	tid, err := primitive.ObjectIDFromHex(user.TenantID)
	if err != nil {
		tid = primitive.NilObjectID
	}
	return strings.ToLower(user.Role), user.Name, tid, true
}

// HasAnyRole reports whether the current request's user has any of the given roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the current request's user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	return HasAnyRole(r, RoleSuperAdmin)
}

// UserTenantID returns the current user's tenant, or NilObjectID.
func UserTenantID(r *http.Request) primitive.ObjectID {
	_, _, tid, _ := UserCtx(r)
	return tid
}

// CanOperate is the single capability check performed before any operator
// action on a tenant's assemblies: the caller must hold an operator role and
// belong to the tenant. Superadmins cross tenants.
func CanOperate(r *http.Request, tenantID primitive.ObjectID) error {
	role, _, userTenant, ok := UserCtx(r)
	if !ok {
		return apperr.Unauthorized("authentication required")
	}
	switch role {
	case RoleSuperAdmin:
		return nil
	case RoleAdmin, RoleSyndic:
		if userTenant.IsZero() || userTenant != tenantID {
			return apperr.Forbidden("assembly belongs to another condominium")
		}
		return nil
	default:
		return apperr.Forbidden("role not allowed")
	}
}

// ScopeTenant resolves the tenant an operator works in. Non-superadmins are
// pinned to their own tenant; a superadmin may name one explicitly.
func ScopeTenant(r *http.Request, requested string) (primitive.ObjectID, error) {
	role, _, userTenant, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized("authentication required")
	}
	if requested != "" {
		tid, err := primitive.ObjectIDFromHex(requested)
		if err != nil {
			return primitive.NilObjectID, apperr.Validation("invalid tenant id")
		}
		if role != RoleSuperAdmin && tid != userTenant {
			return primitive.NilObjectID, apperr.Forbidden("assembly belongs to another condominium")
		}
		return tid, nil
	}
	if userTenant.IsZero() {
		return primitive.NilObjectID, apperr.Validation("tenant_id is required")
	}
	return userTenant, nil
}

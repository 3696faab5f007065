package auth

import "context"

// Resolver answers permission checks for a user inside one tenant. It sits
// on the hot path of every protected operation: it is idempotent,
// side-effect-free and never returns an error. Any resolution failure is a
// deny; turning a deny into a user-visible "forbidden" is the caller's job.
type Resolver struct {
	catalog RoleCatalog
}

// NewResolver constructs a Resolver backed by the given catalog.
func NewResolver(catalog RoleCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Authorize reports whether user may perform the operation named by perm
// within tenantID. A role from a different tenant is treated as absent,
// never matched.
func (r *Resolver) Authorize(ctx context.Context, user *User, tenantID, perm string) bool {
	if r == nil || r.catalog == nil {
		return false
	}
	if user == nil || !user.Active || perm == "" {
		return false
	}
	if tenantID == "" || user.TenantID != tenantID {
		return false
	}
	perms, err := r.catalog.PermissionsFor(ctx, tenantID, user.RoleID)
	if err != nil {
		return false
	}
	_, ok := perms[perm]
	return ok
}

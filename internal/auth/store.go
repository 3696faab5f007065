package auth

import "context"

// CredentialStore is the lookup contract the core needs from persistence.
// Implementations must return ErrNotFound for absent records and must never
// surface a record outside its tenant.
type CredentialStore interface {
	// Find resolves a user by tenant code and email.
	Find(ctx context.Context, tenantCode, email string) (*User, error)
	// FindByID resolves a user by id. Used by the refresh flow, which must
	// re-check the active flag against current state.
	FindByID(ctx context.Context, userID string) (*User, error)
	// Create persists a new user.
	Create(ctx context.Context, u *User) error
	// UpdatePassword replaces the stored credential hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// FindTenantByCode resolves a tenant by its code.
	FindTenantByCode(ctx context.Context, code string) (*Tenant, error)
}

// RoleCatalog resolves tenant-local roles and their permission sets.
type RoleCatalog interface {
	// PermissionsFor returns the permission keys of a role inside a tenant.
	// A role that belongs to a different tenant is absent, not matched.
	PermissionsFor(ctx context.Context, tenantID, roleID string) (map[string]struct{}, error)
	// FindRoleByName resolves a role by its tenant-local name.
	FindRoleByName(ctx context.Context, tenantID, name string) (*Role, error)
}

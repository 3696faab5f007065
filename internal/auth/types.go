package auth

import "time"

// Tenant is the isolation boundary: one customer organization. Every other
// entity carries a tenant id and is invisible outside it.
type Tenant struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an identity inside exactly one tenant. Users are never deleted,
// only deactivated.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role is a named bundle of permission keys, local to one tenant. "PM" in
// tenant A and "PM" in tenant B are distinct role instances.
type Role struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is a fine-grained capability in the catalog.
type Permission struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

// TokenPair bundles the access and refresh tokens issued together.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

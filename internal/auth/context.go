package auth

import "context"

// Principal is an authenticated user with the permission set resolved for the
// current request. The set is a snapshot: it is read once per request and
// never refreshed mid-flight, so a request cannot observe two different role
// states.
type Principal struct {
	User        *User
	Permissions map[string]struct{}
	Claims      *Claims
}

// HasPermission reports whether the principal holds the exact permission key.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.Permissions[key]
	return ok
}

// TenantID returns the tenant the principal operates in.
func (p Principal) TenantID() string {
	if p.User == nil {
		return ""
	}
	return p.User.TenantID
}

type principalContextKey struct{}
type tokenContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.User == nil {
		return "", false
	}
	return p.User.ID, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

package auth

import (
	"context"
	"errors"
	"testing"
)

type fakeCatalog struct {
	roles map[string]*Role                 // by id
	perms map[string]map[string]struct{}   // role id -> keys
	err   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		roles: make(map[string]*Role),
		perms: make(map[string]map[string]struct{}),
	}
}

func (f *fakeCatalog) addRole(id, tenantID, name string, keys ...string) {
	f.roles[id] = &Role{ID: id, TenantID: tenantID, Name: name}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	f.perms[id] = set
}

func (f *fakeCatalog) PermissionsFor(ctx context.Context, tenantID, roleID string) (map[string]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return f.perms[roleID], nil
}

func (f *fakeCatalog) FindRoleByName(ctx context.Context, tenantID, name string) (*Role, error) {
	for _, r := range f.roles {
		if r.TenantID == tenantID && r.Name == name {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func TestAuthorize(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermFeedbackView, PermSprintManage)
	resolver := NewResolver(catalog)
	ctx := context.Background()

	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-pm", Active: true}

	if !resolver.Authorize(ctx, user, "tenant-1", PermFeedbackView) {
		t.Fatal("expected grant for held permission")
	}
	if resolver.Authorize(ctx, user, "tenant-1", PermFeedbackDelete) {
		t.Fatal("expected deny for missing permission")
	}
}

func TestAuthorizeExactMatchOnly(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-x", "tenant-1", "x", "project:create")
	resolver := NewResolver(catalog)
	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-x", Active: true}

	// No hierarchy: holding project:create grants nothing else.
	for _, perm := range []string{"project:edit", "project", "project:*", "project:create:all"} {
		if resolver.Authorize(context.Background(), user, "tenant-1", perm) {
			t.Fatalf("expected deny for %q", perm)
		}
	}
}

func TestAuthorizeTenantMismatch(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermSprintManage)
	resolver := NewResolver(catalog)

	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-pm", Active: true}
	if resolver.Authorize(context.Background(), user, "tenant-2", PermSprintManage) {
		t.Fatal("expected deny across tenants")
	}
}

func TestAuthorizeForeignRole(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermSprintManage)
	resolver := NewResolver(catalog)

	// Same role id referenced from another tenant's user must be absent.
	user := &User{ID: "u2", TenantID: "tenant-2", RoleID: "role-pm", Active: true}
	if resolver.Authorize(context.Background(), user, "tenant-2", PermSprintManage) {
		t.Fatal("expected deny for a role of another tenant")
	}
}

func TestAuthorizeInactiveUser(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermSprintManage)
	resolver := NewResolver(catalog)

	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-pm", Active: false}
	if resolver.Authorize(context.Background(), user, "tenant-1", PermSprintManage) {
		t.Fatal("expected deny for inactive user")
	}
}

func TestAuthorizeFailsClosed(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermSprintManage)
	catalog.err = errors.New("catalog down")
	resolver := NewResolver(catalog)

	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-pm", Active: true}
	if resolver.Authorize(context.Background(), user, "tenant-1", PermSprintManage) {
		t.Fatal("expected deny on catalog error")
	}
}

func TestAuthorizeDegenerateInputs(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.addRole("role-pm", "tenant-1", "pm", PermSprintManage)
	resolver := NewResolver(catalog)
	user := &User{ID: "u1", TenantID: "tenant-1", RoleID: "role-pm", Active: true}
	ctx := context.Background()

	if resolver.Authorize(ctx, nil, "tenant-1", PermSprintManage) {
		t.Fatal("expected deny for nil user")
	}
	if resolver.Authorize(ctx, user, "", PermSprintManage) {
		t.Fatal("expected deny for empty tenant")
	}
	if resolver.Authorize(ctx, user, "tenant-1", "") {
		t.Fatal("expected deny for empty permission")
	}
	var nilResolver *Resolver
	if nilResolver.Authorize(ctx, user, "tenant-1", PermSprintManage) {
		t.Fatal("expected deny on nil resolver")
	}
}

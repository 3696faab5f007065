package auth

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) (*Service, *fakeCreds, *fakeCatalog) {
	t.Helper()
	creds := newFakeCreds()
	catalog := newFakeCatalog()
	tokens, err := NewTokenService([]byte("test-secret"), creds)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc, err := NewService(creds, catalog, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, creds, catalog
}

func seedLoginUser(t *testing.T, creds *fakeCreds, catalog *fakeCatalog) *User {
	t.Helper()
	user := testUser(creds)
	catalog.addRole("role-1", "tenant-1", "pm", PermFeedbackView, PermFeedbackCreate)
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	creds.users[user.ID].PasswordHash = hash
	return user
}

func TestLogin(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	seedLoginUser(t, creds, catalog)

	pair, principal, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if !principal.HasPermission(PermFeedbackView) {
		t.Fatal("expected permission snapshot on principal")
	}
}

func TestLoginFailuresCollapse(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	user := seedLoginUser(t, creds, catalog)

	cases := map[string][3]string{
		"wrong tenant":   {"other", "dev@acme.test", "hunter22"},
		"unknown email":  {"acme", "ghost@acme.test", "hunter22"},
		"wrong password": {"acme", "dev@acme.test", "nope"},
		"empty password": {"acme", "dev@acme.test", ""},
	}
	for name, c := range cases {
		if _, _, err := svc.Login(context.Background(), c[0], c[1], c[2]); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}

	creds.users[user.ID].Active = false
	if _, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("inactive user: expected ErrUnauthorized, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	creds.tenants["acme"] = &Tenant{ID: "tenant-1", Code: "acme", Name: "Acme"}
	catalog.addRole("role-1", "tenant-1", "contributor", PermFeedbackView)

	user, err := svc.Register(context.Background(), RegisterInput{
		TenantCode: "acme",
		Email:      "New@Acme.Test",
		Password:   "longenough",
		FullName:   "New Person",
		RoleName:   "contributor",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "new@acme.test" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.RoleID != "role-1" || user.TenantID != "tenant-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.Active {
		t.Fatal("new user should be active")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	creds.tenants["acme"] = &Tenant{ID: "tenant-1", Code: "acme", Name: "Acme"}
	catalog.addRole("role-1", "tenant-1", "contributor")

	cases := map[string]RegisterInput{
		"missing tenant": {Email: "a@b.test", Password: "longenough", RoleName: "contributor"},
		"bad email":      {TenantCode: "acme", Email: "nope", Password: "longenough", RoleName: "contributor"},
		"short password": {TenantCode: "acme", Email: "a@b.test", Password: "tiny", RoleName: "contributor"},
		"missing role":   {TenantCode: "acme", Email: "a@b.test", Password: "longenough"},
		"unknown role":   {TenantCode: "acme", Email: "a@b.test", Password: "longenough", RoleName: "wizard"},
		"unknown tenant": {TenantCode: "ghost", Email: "a@b.test", Password: "longenough", RoleName: "contributor"},
	}
	for name, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	seedLoginUser(t, creds, catalog)

	pair, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	principal, err := svc.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.User.ID != "user-1" {
		t.Fatalf("unexpected principal: %+v", principal.User)
	}
	if principal.Claims == nil || principal.Claims.TenantID != "tenant-1" {
		t.Fatal("expected claims on authenticated principal")
	}
}

func TestAuthenticateDeactivatedMidSession(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	user := seedLoginUser(t, creds, catalog)

	pair, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Token is still cryptographically valid, but the subject is gone.
	creds.users[user.ID].Active = false
	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	seedLoginUser(t, creds, catalog)

	pair, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	principal, err := svc.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	svc.Logout(principal.Claims)

	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected refresh to fail after logout, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, creds, catalog := newTestService(t)
	user := seedLoginUser(t, creds, catalog)

	if err := svc.ChangePassword(context.Background(), user.ID, "hunter22", "betterpass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "hunter22"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "acme", "dev@acme.test", "betterpass"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "anotherpass"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for wrong old password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "betterpass", "tiny"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeCreds struct {
	tenants map[string]*Tenant // by code
	users   map[string]*User   // by id
}

func newFakeCreds() *fakeCreds {
	return &fakeCreds{
		tenants: make(map[string]*Tenant),
		users:   make(map[string]*User),
	}
}

func (f *fakeCreds) Find(ctx context.Context, tenantCode, email string) (*User, error) {
	t, ok := f.tenants[tenantCode]
	if !ok {
		return nil, ErrNotFound
	}
	for _, u := range f.users {
		if u.TenantID == t.ID && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeCreds) FindByID(ctx context.Context, userID string) (*User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeCreds) Create(ctx context.Context, u *User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeCreds) UpdatePassword(ctx context.Context, userID, hash string) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeCreds) FindTenantByCode(ctx context.Context, code string) (*Tenant, error) {
	t, ok := f.tenants[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func testUser(creds *fakeCreds) *User {
	creds.tenants["acme"] = &Tenant{ID: "tenant-1", Code: "acme", Name: "Acme"}
	u := &User{
		ID:       "user-1",
		TenantID: "tenant-1",
		Email:    "dev@acme.test",
		RoleID:   "role-1",
		Active:   true,
	}
	creds.users[u.ID] = u
	return u
}

func TestIssueAndValidate(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, err := NewTokenService([]byte("test-secret"), creds)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	claims, err := svc.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "user-1" || claims.TenantID != "tenant-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != tokenTypeAccess {
		t.Fatalf("unexpected token type %q", claims.TokenType)
	}
	if claims.FamilyID == "" {
		t.Fatal("expected a family id")
	}
}

func TestValidateRejectsRefreshToken(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Validate(pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	current := time.Now().UTC()
	svc, _ := NewTokenService([]byte("test-secret"), creds,
		WithClock(func() time.Time { return current }))

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	current = current.Add(16 * time.Minute)
	_, err = svc.Validate(pair.AccessToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// Expiry is still just "unauthorized" to the boundary.
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expiry to wrap ErrUnauthorized, got %v", err)
	}
}

func TestValidateTampered(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	if _, err := svc.Validate(tampered); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)
	other, _ := NewTokenService([]byte("other-secret"), creds)

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Validate(pair.AccessToken); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestRefreshKeepsFamily(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	first, err := svc.parse(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	second, err := svc.parse(rotated.RefreshToken)
	if err != nil {
		t.Fatalf("parse rotated: %v", err)
	}
	if first.FamilyID != second.FamilyID {
		t.Fatalf("family id changed across rotation: %s -> %s", first.FamilyID, second.FamilyID)
	}
	if first.ID == second.ID {
		t.Fatal("expected a fresh jti after rotation")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, _ := svc.Issue(user)
	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshInactiveUser(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, _ := svc.Issue(user)
	creds.users[user.ID].Active = false

	_, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrSubjectInactive) {
		t.Fatalf("expected ErrSubjectInactive, got %v", err)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected inactive subject to wrap ErrUnauthorized, got %v", err)
	}
}

func TestRevokeFamilyBlocksBothTokens(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, _ := svc.Issue(user)
	claims, err := svc.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	svc.Revoke(claims)

	if _, err := svc.Validate(pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked for access token, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked for refresh token, got %v", err)
	}
}

func TestIssueAfterRevokeStartsNewFamily(t *testing.T) {
	creds := newFakeCreds()
	user := testUser(creds)
	svc, _ := NewTokenService([]byte("test-secret"), creds)

	pair, _ := svc.Issue(user)
	claims, _ := svc.Validate(pair.AccessToken)
	svc.Revoke(claims)

	fresh, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Validate(fresh.AccessToken); err != nil {
		t.Fatalf("fresh login should not inherit the revocation: %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(nil, newFakeCreds()); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewTokenService([]byte("x"), nil); err == nil {
		t.Fatal("expected error for missing credential store")
	}
}

func TestValidateGarbage(t *testing.T) {
	svc, _ := NewTokenService([]byte("test-secret"), newFakeCreds())
	for _, tok := range []string{"", "   ", "not.a.jwt", strings.Repeat("a", 64)} {
		if _, err := svc.Validate(tok); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", tok, err)
		}
	}
}

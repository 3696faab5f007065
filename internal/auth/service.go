package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fusionhub.org/internal/ids"
)

const minPasswordLength = 6

// Service provides the high level authentication operations consumed by the
// HTTP layer: login, registration, refresh, logout and request
// authentication. Every request flows validate -> authorize -> mutate, each
// step failing closed.
type Service struct {
	creds    CredentialStore
	catalog  RoleCatalog
	tokens   *TokenService
	resolver *Resolver
}

// NewService wires the credential store, role catalog and token service.
func NewService(creds CredentialStore, catalog RoleCatalog, tokens *TokenService) (*Service, error) {
	if creds == nil || catalog == nil || tokens == nil {
		return nil, errors.New("auth: credential store, role catalog and token service are required")
	}
	return &Service{
		creds:    creds,
		catalog:  catalog,
		tokens:   tokens,
		resolver: NewResolver(catalog),
	}, nil
}

// Resolver exposes the permission resolver for callers that gate directly.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Authorize reports whether user may perform perm within tenantID.
func (s *Service) Authorize(ctx context.Context, user *User, tenantID, perm string) bool {
	return s.resolver.Authorize(ctx, user, tenantID, perm)
}

// Login authenticates credentials inside a tenant and issues a token pair.
// Wrong tenant, unknown email, bad password and deactivated account all
// collapse into ErrUnauthorized.
func (s *Service) Login(ctx context.Context, tenantCode, email, password string) (TokenPair, Principal, error) {
	tenantCode = strings.TrimSpace(tenantCode)
	email = strings.TrimSpace(strings.ToLower(email))
	if tenantCode == "" || email == "" || password == "" {
		return TokenPair{}, Principal{}, ErrUnauthorized
	}

	user, err := s.creds.Find(ctx, tenantCode, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Principal{}, ErrUnauthorized
		}
		return TokenPair{}, Principal{}, errors.Join(ErrUnavailable, err)
	}
	if !user.Active {
		return TokenPair{}, Principal{}, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, Principal{}, ErrUnauthorized
	}

	principal, err := s.principal(ctx, user, nil)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, principal, nil
}

// RegisterInput carries the fields needed to create a user inside a tenant.
type RegisterInput struct {
	TenantCode string
	Email      string
	Password   string
	FullName   string
	RoleName   string
}

// Register creates a user in the tenant named by code, with the tenant-local
// role named by RoleName.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.TenantCode = strings.TrimSpace(in.TenantCode)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.RoleName = strings.TrimSpace(in.RoleName)
	if in.TenantCode == "" {
		return nil, fmt.Errorf("%w: tenant_code is required", ErrInvalidInput)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if in.RoleName == "" {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}

	tenant, err := s.creds.FindTenantByCode(ctx, in.TenantCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown tenant", ErrInvalidInput)
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	role, err := s.catalog.FindRoleByName(ctx, tenant.ID, in.RoleName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.RoleName)
		}
		return nil, errors.Join(ErrUnavailable, err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		TenantID:     tenant.ID,
		Email:        in.Email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		RoleID:       role.ID,
		Active:       true,
	}
	if err := s.creds.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	return user, nil
}

// Refresh rotates a refresh token into a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

// Logout revokes the token family of the given claims. The access token
// itself stays cryptographically valid; the denylist makes it unusable.
func (s *Service) Logout(claims *Claims) {
	s.tokens.Revoke(claims)
}

// Authenticate validates an access token and loads the principal with a
// permission snapshot for the request.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.creds.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, errors.Join(ErrUnavailable, err)
	}
	if !user.Active {
		return Principal{}, ErrSubjectInactive
	}
	if user.TenantID != claims.TenantID {
		return Principal{}, ErrUnauthorized
	}
	return s.principal(ctx, user, claims)
}

// ChangePassword verifies the old credential and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	user, err := s.creds.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return errors.Join(ErrUnavailable, err)
	}
	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return fmt.Errorf("%w: old password does not match", ErrInvalidInput)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.creds.UpdatePassword(ctx, userID, hash); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func (s *Service) principal(ctx context.Context, user *User, claims *Claims) (Principal, error) {
	perms, err := s.catalog.PermissionsFor(ctx, user.TenantID, user.RoleID)
	if err != nil {
		return Principal{}, errors.Join(ErrUnavailable, err)
	}
	return Principal{User: user, Permissions: perms, Claims: claims}, nil
}

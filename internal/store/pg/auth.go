package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"fusionhub.org/internal/auth"
)

var (
	_ auth.CredentialStore = (*Store)(nil)
	_ auth.RoleCatalog     = (*Store)(nil)
)

func (s *Store) Find(ctx context.Context, tenantCode, email string) (*auth.User, error) {
	var u auth.User
	var fullName sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select u.id, u.tenant_id, u.email, u.full_name, u.password_hash, u.role_id, u.active, u.created_at, u.updated_at
		from users u
		join tenants t on t.id = u.tenant_id
		where t.code = $1 and u.email = $2
	`, tenantCode, strings.ToLower(email)).Scan(
		&u.ID, &u.TenantID, &u.Email, &fullName, &u.PasswordHash, &u.RoleID, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if fullName.Valid {
		u.FullName = fullName.String
	}
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, userID string) (*auth.User, error) {
	var u auth.User
	var fullName sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select id, tenant_id, email, full_name, password_hash, role_id, active, created_at, updated_at
		from users
		where id = $1
	`, userID).Scan(
		&u.ID, &u.TenantID, &u.Email, &fullName, &u.PasswordHash, &u.RoleID, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if fullName.Valid {
		u.FullName = fullName.String
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users (id, tenant_id, email, full_name, password_hash, role_id, active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.TenantID, u.Email, nullIfEmpty(u.FullName), u.PasswordHash, u.RoleID, u.Active,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash = $2, updated_at = now()
		where id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) FindTenantByCode(ctx context.Context, code string) (*auth.Tenant, error) {
	var t auth.Tenant
	err := s.db.QueryRowContext(ctx, `
		select id, code, name, created_at, updated_at
		from tenants
		where code = $1
	`, code).Scan(&t.ID, &t.Code, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) PermissionsFor(ctx context.Context, tenantID, roleID string) (map[string]struct{}, error) {
	// The tenant filter makes a foreign role indistinguishable from an
	// absent one.
	var exists int
	err := s.db.QueryRowContext(ctx, `
		select 1 from roles where id = $1 and tenant_id = $2
	`, roleID, tenantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select p.key
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		perms[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *Store) FindRoleByName(ctx context.Context, tenantID, name string) (*auth.Role, error) {
	var r auth.Role
	err := s.db.QueryRowContext(ctx, `
		select id, tenant_id, name, created_at, updated_at
		from roles
		where tenant_id = $1 and name = $2
	`, tenantID, strings.ToLower(strings.TrimSpace(name))).Scan(
		&r.ID, &r.TenantID, &r.Name, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

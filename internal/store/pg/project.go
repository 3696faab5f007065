package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fusionhub.org/internal/project"
)

type projectStore struct{ s *Store }

var _ project.Store = projectStore{}

func (v projectStore) Create(ctx context.Context, p *project.Project) error {
	_, err := v.s.db.ExecContext(ctx, `
		insert into projects (id, tenant_id, name, description, status, owner_id, start_date, end_date, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.TenantID, p.Name, p.Description, p.Status, p.OwnerID, nullTime(p.StartDate), nullTime(p.EndDate), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return project.ErrNotFound
		}
		return err
	}
	return nil
}

func (v projectStore) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	row := v.s.db.QueryRowContext(ctx, `
		select id, tenant_id, name, description, status, owner_id, start_date, end_date, created_at, updated_at
		from projects
		where tenant_id = $1 and id = $2
	`, tenantID, id)
	return scanProject(row)
}

func (v projectStore) List(ctx context.Context, tenantID string) ([]*project.Project, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		select id, tenant_id, name, description, status, owner_id, start_date, end_date, created_at, updated_at
		from projects
		where tenant_id = $1
		order by created_at desc
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (v projectStore) Update(ctx context.Context, p *project.Project) error {
	res, err := v.s.db.ExecContext(ctx, `
		update projects
		set name = $3, description = $4, status = $5, end_date = $6, updated_at = $7
		where tenant_id = $1 and id = $2
	`, p.TenantID, p.ID, p.Name, p.Description, p.Status, nullTime(p.EndDate), p.UpdatedAt)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return project.ErrNotFound
	}
	return nil
}

func scanProject(row rowScanner) (*project.Project, error) {
	var p project.Project
	var desc sql.NullString
	var start, end sql.NullTime
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &desc, &p.Status,
		&p.OwnerID, &start, &end, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, project.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	if start.Valid {
		t := start.Time
		p.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		p.EndDate = &t
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

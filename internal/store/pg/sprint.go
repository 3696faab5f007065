package pg

import (
	"context"
	"database/sql"
	"errors"

	"fusionhub.org/internal/sprint"
)

type sprintStore struct{ s *Store }

var _ sprint.Store = sprintStore{}

func (v sprintStore) Create(ctx context.Context, sp *sprint.Sprint) error {
	_, err := v.s.db.ExecContext(ctx, `
		insert into sprints (id, tenant_id, project_id, name, goal, status, start_date, end_date, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sp.ID, sp.TenantID, sp.ProjectID, sp.Name, nullIfEmpty(sp.Goal), sp.Status, sp.StartDate, sp.EndDate, sp.CreatedAt, sp.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return sprint.ErrNotFound
		}
		return err
	}
	return nil
}

func (v sprintStore) Get(ctx context.Context, tenantID, id string) (*sprint.Sprint, error) {
	row := v.s.db.QueryRowContext(ctx, `
		select id, tenant_id, project_id, name, goal, status, start_date, end_date, created_at, updated_at
		from sprints
		where tenant_id = $1 and id = $2
	`, tenantID, id)
	return scanSprint(row)
}

func (v sprintStore) ListByProject(ctx context.Context, tenantID, projectID string) ([]*sprint.Sprint, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		select id, tenant_id, project_id, name, goal, status, start_date, end_date, created_at, updated_at
		from sprints
		where tenant_id = $1 and project_id = $2
		order by start_date
	`, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sprint.Sprint
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (v sprintStore) Update(ctx context.Context, sp *sprint.Sprint) error {
	res, err := v.s.db.ExecContext(ctx, `
		update sprints
		set name = $3, goal = $4, status = $5, start_date = $6, end_date = $7, updated_at = $8
		where tenant_id = $1 and id = $2
	`, sp.TenantID, sp.ID, sp.Name, nullIfEmpty(sp.Goal), sp.Status, sp.StartDate, sp.EndDate, sp.UpdatedAt)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return sprint.ErrNotFound
	}
	return nil
}

func (v sprintStore) AssignTask(ctx context.Context, tenantID, sprintID, taskID string) error {
	var exists int
	err := v.s.db.QueryRowContext(ctx, `
		select 1 from sprints where tenant_id = $1 and id = $2
	`, tenantID, sprintID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return sprint.ErrNotFound
	}
	if err != nil {
		return err
	}

	// Set semantics: re-assigning is a no-op.
	_, err = v.s.db.ExecContext(ctx, `
		insert into sprint_tasks (sprint_id, task_id)
		values ($1, $2)
		on conflict do nothing
	`, sprintID, taskID)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return sprint.ErrNotFound
		}
		return err
	}
	return nil
}

func (v sprintStore) TaskIDs(ctx context.Context, tenantID, sprintID string) ([]string, error) {
	var exists int
	err := v.s.db.QueryRowContext(ctx, `
		select 1 from sprints where tenant_id = $1 and id = $2
	`, tenantID, sprintID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sprint.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := v.s.db.QueryContext(ctx, `
		select task_id from sprint_tasks where sprint_id = $1
	`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSprint(row rowScanner) (*sprint.Sprint, error) {
	var sp sprint.Sprint
	var goal sql.NullString
	err := row.Scan(
		&sp.ID, &sp.TenantID, &sp.ProjectID, &sp.Name, &goal, &sp.Status,
		&sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sprint.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if goal.Valid {
		sp.Goal = goal.String
	}
	return &sp, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"fusionhub.org/internal/task"
)

type taskStore struct{ s *Store }

var _ task.Store = taskStore{}

func (v taskStore) Create(ctx context.Context, t *task.Task) error {
	_, err := v.s.db.ExecContext(ctx, `
		insert into tasks (id, tenant_id, project_id, title, description, feedback_id, created_by, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, nullIfEmpty(t.FeedbackID), t.CreatedBy, t.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return task.ErrNotFound
		}
		return err
	}
	return nil
}

func (v taskStore) Get(ctx context.Context, tenantID, id string) (*task.Task, error) {
	var t task.Task
	var feedbackID sql.NullString
	err := v.s.db.QueryRowContext(ctx, `
		select id, tenant_id, project_id, title, description, feedback_id, created_by, created_at
		from tasks
		where tenant_id = $1 and id = $2
	`, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &feedbackID, &t.CreatedBy, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if feedbackID.Valid {
		t.FeedbackID = feedbackID.String
	}
	return &t, nil
}

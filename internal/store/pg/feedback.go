package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/task"
)

type feedbackStore struct{ s *Store }

var _ feedback.Store = feedbackStore{}

func (v feedbackStore) Create(ctx context.Context, fb *feedback.Feedback) error {
	urls, err := json.Marshal(fb.AttachmentURLs)
	if err != nil {
		return fmt.Errorf("marshal attachment_urls: %w", err)
	}
	_, err = v.s.db.ExecContext(ctx, `
		insert into feedback (id, tenant_id, project_id, title, content, priority, source, status, converted, attachment_urls, created_by, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, fb.ID, fb.TenantID, fb.ProjectID, fb.Title, fb.Content, fb.Priority, fb.Source, fb.Status, fb.Converted, urls, fb.CreatedBy, fb.CreatedAt, fb.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return feedback.ErrNotFound
		}
		return err
	}
	return nil
}

func (v feedbackStore) Get(ctx context.Context, tenantID, id string) (*feedback.Feedback, error) {
	row := v.s.db.QueryRowContext(ctx, `
		select id, tenant_id, project_id, title, content, priority, source, status, converted, attachment_urls, created_by, created_at, updated_at
		from feedback
		where tenant_id = $1 and id = $2
	`, tenantID, id)
	return scanFeedback(row)
}

func (v feedbackStore) List(ctx context.Context, tenantID string) ([]*feedback.Feedback, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		select id, tenant_id, project_id, title, content, priority, source, status, converted, attachment_urls, created_by, created_at, updated_at
		from feedback
		where tenant_id = $1
		order by created_at desc
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feedback.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (v feedbackStore) Update(ctx context.Context, fb *feedback.Feedback) error {
	// Converted is owned by Convert and is absent from the set
	// clause.
	res, err := v.s.db.ExecContext(ctx, `
		update feedback
		set title = $3, content = $4, priority = $5, status = $6, updated_at = $7
		where tenant_id = $1 and id = $2
	`, fb.TenantID, fb.ID, fb.Title, fb.Content, fb.Priority, fb.Status, fb.UpdatedAt)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (v feedbackStore) Delete(ctx context.Context, tenantID, id string) error {
	res, err := v.s.db.ExecContext(ctx, `
		delete from feedback where tenant_id = $1 and id = $2
	`, tenantID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

// Convert flips the converted flag and inserts the task in one transaction.
// The conditional update is what makes the operation at-most-once: of two
// concurrent converts only one matches converted = false.
func (v feedbackStore) Convert(ctx context.Context, tenantID, feedbackID string, t *task.Task) error {
	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update feedback set converted = true, updated_at = now()
		where tenant_id = $1 and id = $2 and converted = false
	`, tenantID, feedbackID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		var converted bool
		err := tx.QueryRowContext(ctx, `
			select converted from feedback where tenant_id = $1 and id = $2
		`, tenantID, feedbackID).Scan(&converted)
		if errors.Is(err, sql.ErrNoRows) {
			return feedback.ErrNotFound
		}
		if err != nil {
			return err
		}
		return feedback.ErrAlreadyConverted
	}

	if _, err := tx.ExecContext(ctx, `
		insert into tasks (id, tenant_id, project_id, title, description, feedback_id, created_by, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, nullIfEmpty(t.FeedbackID), t.CreatedBy, t.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (*feedback.Feedback, error) {
	var fb feedback.Feedback
	var urls []byte
	err := row.Scan(
		&fb.ID, &fb.TenantID, &fb.ProjectID, &fb.Title, &fb.Content,
		&fb.Priority, &fb.Source, &fb.Status, &fb.Converted, &urls,
		&fb.CreatedBy, &fb.CreatedAt, &fb.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, feedback.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(urls) > 0 {
		if err := json.Unmarshal(urls, &fb.AttachmentURLs); err != nil {
			return nil, fmt.Errorf("decode attachment_urls: %w", err)
		}
	}
	return &fb, nil
}

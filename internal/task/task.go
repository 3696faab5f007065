// Package task holds the task entity shared by the feedback conversion flow
// and sprint assignment.
package task

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a task does not exist inside the caller's
// tenant. Absence and tenant mismatch look the same to callers.
var ErrNotFound = errors.New("task: not found")

// Task is a unit of work inside a project. When produced by feedback
// conversion it carries a one-directional back-reference to its origin.
type Task struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FeedbackID  string    `json:"feedback_id,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists tasks. All lookups are tenant-scoped.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, tenantID, id string) (*Task, error)
}

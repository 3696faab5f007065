package feedback

import (
	"context"

	"fusionhub.org/internal/task"
)

// Store persists feedback. All operations are tenant-scoped; absent and
// out-of-tenant records surface as ErrNotFound.
type Store interface {
	Create(ctx context.Context, fb *Feedback) error
	Get(ctx context.Context, tenantID, id string) (*Feedback, error)
	List(ctx context.Context, tenantID string) ([]*Feedback, error)
	Update(ctx context.Context, fb *Feedback) error
	Delete(ctx context.Context, tenantID, id string) error

	// Convert atomically creates the task and flips the converted flag in
	// one unit: a task without the flag, or the flag without the task, must
	// never be observable. The flag update is conditional (check-and-set on
	// converted=false); a lost race returns ErrAlreadyConverted, so two
	// concurrent conversions can never both succeed.
	Convert(ctx context.Context, tenantID, feedbackID string, t *task.Task) error
}

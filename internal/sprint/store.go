package sprint

import "context"

// Store persists sprints and their task assignments. All operations are
// tenant-scoped; absent and out-of-tenant records surface as ErrNotFound.
type Store interface {
	Create(ctx context.Context, s *Sprint) error
	Get(ctx context.Context, tenantID, id string) (*Sprint, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]*Sprint, error)
	Update(ctx context.Context, s *Sprint) error

	// AssignTask records membership. Assignment is a set: repeating an
	// existing assignment is a no-op, order is irrelevant.
	AssignTask(ctx context.Context, tenantID, sprintID, taskID string) error
	TaskIDs(ctx context.Context, tenantID, sprintID string) ([]string, error)
}

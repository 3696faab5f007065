package sprint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fusionhub.org/internal/ids"
	"fusionhub.org/internal/task"
)

// Engine enforces the sprint lifecycle and task-assignment preconditions.
type Engine struct {
	store Store
	tasks task.Store
	now   func() time.Time
}

// EngineOption configures Engine behavior.
type EngineOption func(*Engine)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine constructs an Engine over the sprint and task stores.
func NewEngine(store Store, tasks task.Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, tasks: tasks, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInput carries the fields accepted at creation.
type CreateInput struct {
	ProjectID string
	Name      string
	Goal      string
	StartDate time.Time
	EndDate   time.Time
}

// Create records a new sprint in PLANNED. An inverted date range is
// rejected.
func (e *Engine) Create(ctx context.Context, tenantID string, in CreateInput) (*Sprint, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidInput)
	}
	if in.StartDate.After(in.EndDate) {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidInput)
	}

	now := e.now().UTC()
	s := &Sprint{
		ID:        ids.New(),
		TenantID:  tenantID,
		ProjectID: in.ProjectID,
		Name:      in.Name,
		Goal:      strings.TrimSpace(in.Goal),
		Status:    StatusPlanned,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, wrapStoreErr(err)
	}
	return s, nil
}

// Get returns one sprint inside the tenant.
func (e *Engine) Get(ctx context.Context, tenantID, id string) (*Sprint, error) {
	s, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return s, nil
}

// ListByProject returns the project's sprints inside the tenant.
func (e *Engine) ListByProject(ctx context.Context, tenantID, projectID string) ([]*Sprint, error) {
	items, err := e.store.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return items, nil
}

// UpdateInput carries the mutable fields. Nil means "leave unchanged".
type UpdateInput struct {
	Name      *string
	Goal      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Update edits name, goal or dates. Permitted only while PLANNED; once a
// sprint has started its definition is frozen.
func (e *Engine) Update(ctx context.Context, tenantID, id string, in UpdateInput) (*Sprint, error) {
	s, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if s.Status != StatusPlanned {
		return nil, fmt.Errorf("%w: sprint is %s", ErrSprintLocked, s.Status)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		s.Name = name
	}
	if in.Goal != nil {
		s.Goal = strings.TrimSpace(*in.Goal)
	}
	if in.StartDate != nil {
		s.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		s.EndDate = *in.EndDate
	}
	if s.StartDate.After(s.EndDate) {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidInput)
	}

	s.UpdatedAt = e.now().UTC()
	if err := e.store.Update(ctx, s); err != nil {
		return nil, wrapStoreErr(err)
	}
	return s, nil
}

// Start moves PLANNED -> ACTIVE.
func (e *Engine) Start(ctx context.Context, tenantID, id string) (*Sprint, error) {
	return e.transition(ctx, tenantID, id, StatusActive)
}

// Close moves ACTIVE -> CLOSED. A sprint that was never started cannot be
// closed: it must pass through ACTIVE first.
func (e *Engine) Close(ctx context.Context, tenantID, id string) (*Sprint, error) {
	return e.transition(ctx, tenantID, id, StatusClosed)
}

func (e *Engine) transition(ctx context.Context, tenantID, id string, target Status) (*Sprint, error) {
	s, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !s.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, target)
	}
	s.Status = target
	s.UpdatedAt = e.now().UTC()
	if err := e.store.Update(ctx, s); err != nil {
		return nil, wrapStoreErr(err)
	}
	return s, nil
}

// AssignTask adds a task to the sprint. Allowed while PLANNED or ACTIVE; a
// closed sprint is locked. The task must exist in the tenant and belong to
// the sprint's project.
func (e *Engine) AssignTask(ctx context.Context, tenantID, sprintID, taskID string) error {
	s, err := e.store.Get(ctx, tenantID, sprintID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if s.Status == StatusClosed {
		return fmt.Errorf("%w: sprint is closed", ErrSprintLocked)
	}

	t, err := e.tasks.Get(ctx, tenantID, taskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Join(ErrUnavailable, err)
	}
	if t.ProjectID != s.ProjectID {
		return ErrProjectMismatch
	}

	if err := e.store.AssignTask(ctx, tenantID, sprintID, taskID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// Tasks returns the tasks assigned to the sprint.
func (e *Engine) Tasks(ctx context.Context, tenantID, sprintID string) ([]*task.Task, error) {
	if _, err := e.store.Get(ctx, tenantID, sprintID); err != nil {
		return nil, wrapStoreErr(err)
	}
	idsList, err := e.store.TaskIDs(ctx, tenantID, sprintID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	out := make([]*task.Task, 0, len(idsList))
	for _, id := range idsList {
		t, err := e.tasks.Get(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, task.ErrNotFound) {
				continue
			}
			return nil, errors.Join(ErrUnavailable, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// wrapStoreErr passes through the package sentinels and wraps everything
// else (collaborator I/O failures) into ErrUnavailable.
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSprintLocked),
		errors.Is(err, ErrProjectMismatch),
		errors.Is(err, ErrInvalidInput):
		return err
	default:
		return errors.Join(ErrUnavailable, err)
	}
}

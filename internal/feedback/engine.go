package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fusionhub.org/internal/ids"
	"fusionhub.org/internal/task"
)

// Engine enforces the feedback lifecycle. It holds no per-request state;
// every operation takes the authenticated tenant id and fails closed on a
// mismatch.
type Engine struct {
	store Store
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

// NewEngine constructs an Engine over the given store.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInput carries the fields accepted at creation. Status is not among
// them: new feedback always enters NEW.
type CreateInput struct {
	ProjectID      string
	Title          string
	Content        string
	Priority       Priority
	Source         Source
	AttachmentURLs []string
}

// Create records a new feedback item in NEW.
func (e *Engine) Create(ctx context.Context, tenantID, userID string, in CreateInput) (*Feedback, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
	}
	if in.Source == "" {
		in.Source = SourceCustomer
	}
	if !in.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, in.Source)
	}

	now := e.now().UTC()
	fb := &Feedback{
		ID:             ids.New(),
		TenantID:       tenantID,
		ProjectID:      in.ProjectID,
		Title:          in.Title,
		Content:        in.Content,
		Priority:       in.Priority,
		Source:         in.Source,
		Status:         StatusNew,
		AttachmentURLs: in.AttachmentURLs,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.Create(ctx, fb); err != nil {
		return nil, wrapStoreErr(err)
	}
	return fb, nil
}

// Get returns one feedback item inside the tenant.
func (e *Engine) Get(ctx context.Context, tenantID, id string) (*Feedback, error) {
	fb, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return fb, nil
}

// List returns the tenant's feedback items.
func (e *Engine) List(ctx context.Context, tenantID string) ([]*Feedback, error) {
	items, err := e.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return items, nil
}

// UpdateInput carries the mutable fields. Nil means "leave unchanged".
type UpdateInput struct {
	Title    *string
	Content  *string
	Priority *Priority
	Status   *Status
}

// Update applies content changes and, when Status is set, a transition
// checked against the forward-only table.
func (e *Engine) Update(ctx context.Context, tenantID, id string, in UpdateInput) (*Feedback, error) {
	fb, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		fb.Title = title
	}
	if in.Content != nil {
		fb.Content = *in.Content
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *in.Priority)
		}
		fb.Priority = *in.Priority
	}
	if in.Status != nil && *in.Status != fb.Status {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		if !fb.Status.CanTransitionTo(*in.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fb.Status, *in.Status)
		}
		fb.Status = *in.Status
	}

	fb.UpdatedAt = e.now().UTC()
	if err := e.store.Update(ctx, fb); err != nil {
		return nil, wrapStoreErr(err)
	}
	return fb, nil
}

// ConvertToTask creates a task from the feedback and marks it converted.
// Allowed from NEW or TRIAGED, never from CLOSED, and at most once: the
// store-level check-and-set guarantees two concurrent calls cannot both
// succeed. The feedback's status field is left untouched.
func (e *Engine) ConvertToTask(ctx context.Context, tenantID, feedbackID, userID string) (*task.Task, error) {
	fb, err := e.store.Get(ctx, tenantID, feedbackID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if fb.Converted {
		return nil, ErrAlreadyConverted
	}
	if fb.Status == StatusClosed {
		return nil, fmt.Errorf("%w: cannot convert closed feedback", ErrInvalidTransition)
	}

	t := &task.Task{
		ID:          ids.New(),
		TenantID:    tenantID,
		ProjectID:   fb.ProjectID,
		Title:       fb.Title,
		Description: fb.Content,
		FeedbackID:  fb.ID,
		CreatedBy:   userID,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.store.Convert(ctx, tenantID, feedbackID, t); err != nil {
		return nil, wrapStoreErr(err)
	}
	return t, nil
}

// Delete removes a feedback item. Deleting a converted feedback never
// cascades to the task it produced.
func (e *Engine) Delete(ctx context.Context, tenantID, id string) error {
	if err := e.store.Delete(ctx, tenantID, id); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// wrapStoreErr passes through the package sentinels and wraps everything
// else (collaborator I/O failures) into ErrUnavailable.
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyConverted),
		errors.Is(err, ErrInvalidInput):
		return err
	default:
		return errors.Join(ErrUnavailable, err)
	}
}

package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fusionhub.org/internal/ids"
)

const minNameLength = 3

// Engine owns project validation and persistence.
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

// CreateInput carries the fields accepted at creation.
type CreateInput struct {
	Name        string
	Description string
	Status      Status
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create records a new project owned by the creating user. A missing status
// defaults to proposal.
func (e *Engine) Create(ctx context.Context, tenantID, ownerID string, in CreateInput) (*Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if len(in.Name) < minNameLength {
		return nil, fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minNameLength)
	}
	if in.Status == "" {
		in.Status = StatusProposal
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if in.StartDate != nil && in.EndDate != nil && in.StartDate.After(*in.EndDate) {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidInput)
	}

	now := e.now().UTC()
	p := &Project{
		ID:          ids.New(),
		TenantID:    tenantID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		OwnerID:     ownerID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.Create(ctx, p); err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

// Get returns one project inside the tenant.
func (e *Engine) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	p, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

// List returns the tenant's projects.
func (e *Engine) List(ctx context.Context, tenantID string) ([]*Project, error) {
	items, err := e.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return items, nil
}

// UpdateInput carries the mutable fields. Nil means "leave unchanged".
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *Status
	EndDate     *time.Time
}

// Update edits name, description, status or the end date.
func (e *Engine) Update(ctx context.Context, tenantID, id string, in UpdateInput) (*Project, error) {
	p, err := e.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < minNameLength {
			return nil, fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minNameLength)
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		p.Status = *in.Status
	}
	if in.EndDate != nil {
		if p.StartDate != nil && p.StartDate.After(*in.EndDate) {
			return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidInput)
		}
		p.EndDate = in.EndDate
	}

	p.UpdatedAt = e.now().UTC()
	if err := e.store.Update(ctx, p); err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

// wrapStoreErr passes through the package sentinels and wraps everything
// else (collaborator I/O failures) into ErrUnavailable.
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput):
		return err
	default:
		return errors.Join(ErrUnavailable, err)
	}
}

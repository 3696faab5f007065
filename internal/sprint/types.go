package sprint

import (
	"errors"
	"time"
)

// Status is the sprint lifecycle state. The machine is linear: PLANNED ->
// ACTIVE -> CLOSED, no backward step, no skip.
type Status string

const (
	StatusPlanned Status = "PLANNED"
	StatusActive  Status = "ACTIVE"
	StatusClosed  Status = "CLOSED"
)

// next maps each status to its only legal successor.
var next = map[Status]Status{
	StatusPlanned: StatusActive,
	StatusActive:  StatusClosed,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPlanned || s == StatusActive || s == StatusClosed
}

// CanTransitionTo reports whether target is the immediate successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	return next[s] == target
}

// Sprint belongs to a project. Name, goal and dates are frozen once the
// sprint leaves PLANNED.
type Sprint struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal,omitempty"`
	Status    Status    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound covers both a genuinely absent id and a tenant mismatch.
	ErrNotFound          = errors.New("sprint: not found")
	ErrInvalidTransition = errors.New("sprint: invalid status transition")
	ErrSprintLocked      = errors.New("sprint: locked for this operation")
	ErrProjectMismatch   = errors.New("sprint: task belongs to a different project")
	ErrInvalidInput      = errors.New("sprint: invalid input")
	ErrUnavailable       = errors.New("sprint: backend unavailable")
)

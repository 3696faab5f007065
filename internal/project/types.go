package project

import (
	"errors"
	"time"
)

// Status tracks the phase a project is in. Unlike feedback and sprints there
// is no transition table: the phase may move freely between valid values.
type Status string

const (
	StatusProposal    Status = "proposal"
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusCompleted   Status = "completed"
	StatusOnHold      Status = "on_hold"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusProposal, StatusActive, StatusMaintenance, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Project is the workspace unit feedback, tasks and sprints hang off.
type Project struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	OwnerID     string     `json:"owner_id"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var (
	// ErrNotFound covers both a genuinely absent id and a tenant mismatch.
	ErrNotFound     = errors.New("project: not found")
	ErrInvalidInput = errors.New("project: invalid input")
	ErrUnavailable  = errors.New("project: backend unavailable")
)

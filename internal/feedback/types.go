package feedback

import (
	"errors"
	"time"
)

// Status is the feedback workflow state. Transitions are forward-only.
type Status string

const (
	StatusNew     Status = "NEW"
	StatusTriaged Status = "TRIAGED"
	StatusClosed  Status = "CLOSED"
)

// transitions is the single source of truth for transition legality: each
// status maps to the set of states reachable from it.
var transitions = map[Status][]Status{
	StatusNew:     {StatusTriaged, StatusClosed},
	StatusTriaged: {StatusClosed},
	StatusClosed:  {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether next is forward-reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority of a feedback item.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Source records where a feedback item originated.
type Source string

const (
	SourceCustomer Source = "CUSTOMER"
	SourceInternal Source = "INTERNAL"
)

// Valid reports whether s is a known source value.
func (s Source) Valid() bool {
	return s == SourceCustomer || s == SourceInternal
}

// Feedback belongs to a project and, transitively, to a tenant. Converted is
// an orthogonal flag, not a status value: conversion must not erase the
// NEW/TRIAGED/CLOSED signal used for reporting.
type Feedback struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	ProjectID      string    `json:"project_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Priority       Priority  `json:"priority"`
	Source         Source    `json:"source"`
	Status         Status    `json:"status"`
	Converted      bool      `json:"converted"`
	AttachmentURLs []string  `json:"attachment_urls"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	// ErrNotFound covers both a genuinely absent id and a tenant mismatch;
	// callers cannot tell the two apart.
	ErrNotFound          = errors.New("feedback: not found")
	ErrInvalidTransition = errors.New("feedback: invalid status transition")
	ErrAlreadyConverted  = errors.New("feedback: already converted")
	ErrInvalidInput      = errors.New("feedback: invalid input")
	ErrUnavailable       = errors.New("feedback: backend unavailable")
)

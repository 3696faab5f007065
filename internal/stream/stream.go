// Package stream fan-outs workflow events to live subscribers (the SSE
// activity feed). Subscriptions are tenant-scoped: a subscriber only ever
// sees events from its own tenant.
package stream

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the workflow engines.
const (
	EventProjectCreated    = "project.created"
	EventProjectUpdated    = "project.updated"
	EventFeedbackCreated   = "feedback.created"
	EventFeedbackUpdated   = "feedback.updated"
	EventFeedbackConverted = "feedback.converted"
	EventFeedbackDeleted   = "feedback.deleted"
	EventSprintCreated     = "sprint.created"
	EventSprintUpdated     = "sprint.updated"
	EventSprintStarted     = "sprint.started"
	EventSprintClosed      = "sprint.closed"
	EventTaskAssigned      = "sprint.task_assigned"
)

// Event is one workflow state change.
type Event struct {
	Type      string    `json:"type"`
	TenantID  string    `json:"-"`
	EntityID  string    `json:"entity_id"`
	ProjectID string    `json:"project_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	tenantID string
	ch       chan Event
}

// Stream delivers events to all active subscribers of the event's tenant.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for one tenant and returns the channel
// events arrive on. The channel is closed when the context ends.
func (s *Stream) Subscribe(ctx context.Context, tenantID string) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{tenantID: tenantID, ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish delivers the event to every subscriber of its tenant.
func (s *Stream) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.tenantID != evt.TenantID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

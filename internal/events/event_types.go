package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/service-desk/internal/domain"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	RequestCreated   EventType = "request_created"
	RequestAssigned  EventType = "request_assigned"
	RequestVerifying EventType = "request_verifying"
	RequestClosed    EventType = "request_closed"
	RequestEdited    EventType = "request_edited"
	RequestDeleted   EventType = "request_deleted"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event is the envelope published on every lifecycle transition.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event envelope with a fresh id and timestamp.
func NewEvent(eventType EventType, requestID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// StatusChangedPayload carries the transition on assign/verify/close.
type StatusChangedPayload struct {
	From domain.RequestStatus `json:"from"`
	To   domain.RequestStatus `json:"to"`
}

// AssignedPayload carries assignment details.
type AssignedPayload struct {
	ExecutorID int64      `json:"executor_id"`
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
	Emergency  bool       `json:"emergency"`
}

// EditedPayload lists the fields touched by an edit.
type EditedPayload struct {
	Fields        []string `json:"fields"`
	RemovedMedia  int      `json:"removed_media"`
	UploadedMedia int      `json:"uploaded_media"`
}

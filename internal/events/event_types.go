package events

import (
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated  EventType = "complaint_created"
	EventComplaintUpdated  EventType = "complaint_updated"
	EventComplaintReopened EventType = "complaint_reopened"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Code     string          `json:"code"`
	Type     string          `json:"type"`
	Priority domain.Priority `json:"priority"`
	WardID   *string         `json:"ward_id,omitempty"`
}

// ComplaintUpdatedPayload payload.
type ComplaintUpdatedPayload struct {
	OldStatus         domain.ComplaintStatus `json:"old_status"`
	NewStatus         domain.ComplaintStatus `json:"new_status"`
	WardOfficerID     string                 `json:"ward_officer_id"`
	MaintenanceTeamID string                 `json:"maintenance_team_id"`
	Comment           string                 `json:"comment,omitempty"`
}

// ComplaintReopenedPayload payload.
type ComplaintReopenedPayload struct {
	WardOfficerID string `json:"ward_officer_id"`
	Comment       string `json:"comment"`
}

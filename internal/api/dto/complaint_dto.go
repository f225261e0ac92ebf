package dto

import (
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Type        string     `json:"type" validate:"required,max=100"`
	Description string     `json:"description" validate:"required,max=4000"`
	Area        string     `json:"area" validate:"required,max=255"`
	WardID      *string    `json:"ward_id" validate:"omitempty,max=64"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateComplaintRequest is the PATCH body for status and assignment
// changes. Assignment fields accept null, a user id or a user object.
type UpdateComplaintRequest struct {
	Status          *string            `json:"status" validate:"omitempty,oneof=REGISTERED ASSIGNED IN_PROGRESS RESOLVED CLOSED REOPENED"`
	Priority        *string            `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	WardOfficer     *domain.Assignment `json:"ward_officer"`
	MaintenanceTeam *domain.Assignment `json:"maintenance_team"`
	AssignedTo      *domain.Assignment `json:"assigned_to"`
	Remarks         *string            `json:"remarks" validate:"omitempty,max=2000"`
}

// ReopenComplaintRequest payload.
type ReopenComplaintRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

// ComplaintListQuery captures query filters for listing.
type ComplaintListQuery struct {
	Statuses []domain.ComplaintStatus
	Page     int
	PageSize int
}

// AssigneeResponse renders an assignment as id plus display name.
type AssigneeResponse struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

// StatusLogResponse is one entry of the status trail.
type StatusLogResponse struct {
	Sequence   int                     `json:"sequence"`
	FromStatus *domain.ComplaintStatus `json:"from_status"`
	ToStatus   domain.ComplaintStatus  `json:"to_status"`
	Comment    *string                 `json:"comment"`
	ActorID    *string                 `json:"actor_id"`
	Timestamp  time.Time               `json:"timestamp"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID                  string                 `json:"id"`
	ComplaintID         string                 `json:"complaint_id"`
	Type                string                 `json:"type"`
	Area                string                 `json:"area"`
	WardID              *string                `json:"ward_id"`
	Priority            domain.Priority        `json:"priority"`
	Status              domain.ComplaintStatus `json:"status"`
	WardOfficer         AssigneeResponse       `json:"ward_officer"`
	MaintenanceTeam     AssigneeResponse       `json:"maintenance_team"`
	NeedsTeamAssignment bool                   `json:"needs_team_assignment"`
	SubmittedOn         *time.Time             `json:"submitted_on"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ComplaintSummary
	Description string              `json:"description"`
	AssignedTo  AssigneeResponse    `json:"assigned_to"`
	AssignedOn  *time.Time          `json:"assigned_on"`
	ResolvedOn  *time.Time          `json:"resolved_on"`
	ClosedOn    *time.Time          `json:"closed_on"`
	Deadline    *time.Time          `json:"deadline"`
	Remarks     *string             `json:"remarks"`
	Version     int64               `json:"version"`
	StatusLogs  []StatusLogResponse `json:"status_logs"`
}

// StatusOptionsResponse lists the statuses a caller may choose.
type StatusOptionsResponse struct {
	Role          domain.Role              `json:"role"`
	CurrentStatus domain.ComplaintStatus   `json:"current_status"`
	Options       []domain.ComplaintStatus `json:"options"`
}

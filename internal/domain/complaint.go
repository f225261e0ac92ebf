package domain

import (
	"fmt"
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusRegistered ComplaintStatus = "REGISTERED"
	StatusAssigned   ComplaintStatus = "ASSIGNED"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusClosed     ComplaintStatus = "CLOSED"
	StatusReopened   ComplaintStatus = "REOPENED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ComplaintStatus{
	StatusRegistered,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
	StatusReopened,
}

// Valid reports whether s is one of the known statuses.
func (s ComplaintStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Finalized reports whether work on the complaint is complete.
func (s ComplaintStatus) Finalized() bool {
	return s == StatusResolved || s == StatusClosed
}

// ParseComplaintStatus converts raw input into a known status.
func ParseComplaintStatus(raw string) (ComplaintStatus, error) {
	status := ComplaintStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown complaint status %q", raw)
	}
	return status, nil
}

// Priority enumerates complaint urgency.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Complaint is the aggregate root for a citizen complaint.
type Complaint struct {
	ID                  string
	ComplaintID         string
	Type                string
	Description         string
	Area                string
	WardID              *string
	Priority            Priority
	Status              ComplaintStatus
	WardOfficer         Assignment
	MaintenanceTeam     Assignment
	AssignedTo          Assignment
	NeedsTeamAssignment bool
	SubmittedByID       *string
	SubmittedOn         *time.Time
	AssignedOn          *time.Time
	ResolvedOn          *time.Time
	ClosedOn            *time.Time
	Deadline            *time.Time
	Remarks             *string
	Version             int64
	StatusLogs          []StatusLogEntry
	UpdatedAt           time.Time
}

// Clone returns a copy that can be mutated without touching the receiver.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	out.StatusLogs = append([]StatusLogEntry(nil), c.StatusLogs...)
	return &out
}

// LastLogSequence returns the sequence number of the newest log entry.
func (c *Complaint) LastLogSequence() int {
	if len(c.StatusLogs) == 0 {
		return 0
	}
	return c.StatusLogs[len(c.StatusLogs)-1].Sequence
}

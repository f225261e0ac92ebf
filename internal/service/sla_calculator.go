package service

import (
	"math"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// SLAStatus is the verdict of an SLA evaluation.
type SLAStatus string

const (
	SLAOnTime       SLAStatus = "ON_TIME"
	SLAOverdue      SLAStatus = "OVERDUE"
	SLANotAvailable SLAStatus = "N/A"
)

// SLALookup resolves SLA hours for a complaint type name, ignoring case.
type SLALookup interface {
	SLAHours(typeName string) (int, bool)
}

// SLAResult describes a complaint's standing against its deadline.
type SLAResult struct {
	Status                SLAStatus  `json:"status"`
	Deadline              *time.Time `json:"deadline"`
	SubmittedAt           *time.Time `json:"submitted_at"`
	ClosedAt              *time.Time `json:"closed_at"`
	ActualResolutionHours *int       `json:"actual_resolution_hours"`
}

// ComputeSLA evaluates complaint against the type configuration in effect now.
// Open complaints are judged against now, so results are never cached.
func ComputeSLA(complaint *domain.Complaint, types SLALookup, now time.Time) SLAResult {
	result := SLAResult{
		Status:      SLANotAvailable,
		SubmittedAt: complaint.SubmittedOn,
		ClosedAt:    complaint.ClosedOn,
	}
	if complaint.SubmittedOn == nil {
		return result
	}
	submitted := *complaint.SubmittedOn

	var deadline time.Time
	hours, ok := 0, false
	if types != nil {
		hours, ok = types.SLAHours(complaint.Type)
	}
	switch {
	case ok:
		deadline = submitted.Add(time.Duration(hours) * time.Hour)
	case complaint.Deadline != nil:
		deadline = *complaint.Deadline
	default:
		return result
	}
	result.Deadline = &deadline

	if complaint.Status.Finalized() && complaint.ClosedOn != nil {
		closed := *complaint.ClosedOn
		result.Status = verdict(!closed.After(deadline))
		elapsed := int(math.Round(closed.Sub(submitted).Hours()))
		result.ActualResolutionHours = &elapsed
		return result
	}

	result.Status = verdict(!now.After(deadline))
	return result
}

func verdict(onTime bool) SLAStatus {
	if onTime {
		return SLAOnTime
	}
	return SLAOverdue
}

package service

import (
	"fmt"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// Messages returned by Validate that callers and tests match on.
const (
	MsgMaintenanceTeamRequired = "Please select a maintenance team member before assigning this complaint."
	MsgWardOfficerRequired     = "Please select a ward officer before assigning this complaint."
	MsgOnlyAdminCanReopen      = "Only administrators can reopen complaints."
	MsgOnlyClosedCanBeReopened = "Only closed complaints can be reopened."
	MsgNeedsTeamAssignment     = "This complaint needs a maintenance team assignment. Please select a team member."
	MsgMaintenanceNoAssigned   = "Maintenance team cannot move a complaint back to 'ASSIGNED'."
	MsgMaintenanceNoRegistered = "Maintenance team cannot set status to 'REGISTERED'."
	MsgMaintenanceNoPriority   = "Maintenance team cannot change complaint priority."
	MsgOnlyAdminSetsOfficer    = "Only administrators can change the ward officer."
	MsgOnlyStaffAssignTeam     = "Only ward officers and administrators can change the maintenance team assignment."
	NoteReopenCascade          = "Reopening will move the complaint to 'ASSIGNED' and clear the maintenance team assignment."
)

// statusOptions keys next statuses by current status. The empty key is the
// fallback for statuses without an explicit row.
type statusOptions map[domain.ComplaintStatus][]domain.ComplaintStatus

const anyStatus domain.ComplaintStatus = ""

var (
	officerOptions = []domain.ComplaintStatus{
		domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress,
		domain.StatusResolved, domain.StatusClosed,
	}
	adminOptions = []domain.ComplaintStatus{
		domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress,
		domain.StatusResolved, domain.StatusClosed, domain.StatusReopened,
	}
	defaultOptions = []domain.ComplaintStatus{
		domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress,
		domain.StatusResolved,
	}
)

// statusOptionsByRole is the only copy of the state machine.
var statusOptionsByRole = map[domain.Role]statusOptions{
	domain.RoleMaintenanceTeam: {
		domain.StatusAssigned:   {domain.StatusAssigned, domain.StatusInProgress},
		domain.StatusInProgress: {domain.StatusInProgress, domain.StatusResolved},
		domain.StatusResolved:   {domain.StatusResolved},
		domain.StatusReopened:   {domain.StatusReopened, domain.StatusInProgress},
		anyStatus:               {domain.StatusInProgress, domain.StatusResolved},
	},
	domain.RoleWardOfficer:   {anyStatus: officerOptions},
	domain.RoleAdministrator: {anyStatus: adminOptions},
}

// GetAvailableStatusOptions returns the statuses an actor of role may select
// for a complaint currently in status current.
func GetAvailableStatusOptions(role domain.Role, current domain.ComplaintStatus) []domain.ComplaintStatus {
	table, ok := statusOptionsByRole[role]
	if !ok {
		return append([]domain.ComplaintStatus(nil), defaultOptions...)
	}
	options, ok := table[current]
	if !ok {
		options = table[anyStatus]
	}
	return append([]domain.ComplaintStatus(nil), options...)
}

func containsStatus(options []domain.ComplaintStatus, status domain.ComplaintStatus) bool {
	for _, candidate := range options {
		if candidate == status {
			return true
		}
	}
	return false
}

func joinStatuses(options []domain.ComplaintStatus) string {
	parts := make([]string, len(options))
	for i, status := range options {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

// ComplaintPatch is a proposed update. Nil fields are left unchanged; an
// assignment identifier of "" or "none" clears the relation.
type ComplaintPatch struct {
	Status            *domain.ComplaintStatus
	Priority          *domain.Priority
	WardOfficerID     *string
	MaintenanceTeamID *string
	AssignedToID      *string
	Remarks           *string
}

// TargetStatus is the status the complaint would rest in after the patch.
func (p ComplaintPatch) TargetStatus(current domain.ComplaintStatus) domain.ComplaintStatus {
	if p.Status != nil {
		return *p.Status
	}
	return current
}

// Validation is the outcome of evaluating a patch. Forbidden marks errors
// that come from acting outside the role's permitted transitions.
type Validation struct {
	Errors    []string
	Notes     []string
	Forbidden bool
}

// OK reports whether the patch may be applied.
func (v Validation) OK() bool {
	return len(v.Errors) == 0
}

// Validate returns every rule violation of patch for an actor of role. It
// never mutates complaint.
func Validate(patch ComplaintPatch, role domain.Role, complaint *domain.Complaint) []string {
	return Evaluate(patch, role, complaint).Errors
}

// Evaluate runs the transition rules and also returns informational notes.
func Evaluate(patch ComplaintPatch, role domain.Role, complaint *domain.Complaint) Validation {
	var result Validation
	current := complaint.Status
	target := patch.TargetStatus(current)
	finalized := current.Finalized()

	options := GetAvailableStatusOptions(role, current)
	if !containsStatus(options, target) {
		result.Forbidden = true
		result.Errors = append(result.Errors, fmt.Sprintf(
			"You don't have permission to set status to '%s'. Available options: %s",
			target, joinStatuses(options)))
	}

	if patch.Priority != nil && !patch.Priority.Valid() {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid priority '%s'.", *patch.Priority))
	}

	if role == domain.RoleMaintenanceTeam {
		if target == domain.StatusAssigned && current != domain.StatusAssigned {
			result.Errors = append(result.Errors, MsgMaintenanceNoAssigned)
		}
		if target == domain.StatusRegistered {
			result.Errors = append(result.Errors, MsgMaintenanceNoRegistered)
		}
		if patch.Priority != nil && *patch.Priority != complaint.Priority {
			result.Errors = append(result.Errors, MsgMaintenanceNoPriority)
		}
	}

	if role != domain.RoleAdministrator && changesAssignment(patch.WardOfficerID, complaint.WardOfficer) {
		result.Forbidden = true
		result.Errors = append(result.Errors, MsgOnlyAdminSetsOfficer)
	}
	if role != domain.RoleWardOfficer && role != domain.RoleAdministrator &&
		(changesAssignment(patch.MaintenanceTeamID, complaint.MaintenanceTeam) ||
			changesAssignment(patch.AssignedToID, complaint.AssignedTo)) {
		result.Forbidden = true
		result.Errors = append(result.Errors, MsgOnlyStaffAssignTeam)
	}

	teamID := effectiveAssignmentID(patch.MaintenanceTeamID, complaint.MaintenanceTeam)
	officerID := effectiveAssignmentID(patch.WardOfficerID, complaint.WardOfficer)

	if target == domain.StatusAssigned && !finalized {
		switch role {
		case domain.RoleWardOfficer:
			if teamID == NoAssignment {
				result.Errors = append(result.Errors, MsgMaintenanceTeamRequired)
			}
		case domain.RoleAdministrator:
			if officerID == NoAssignment {
				result.Errors = append(result.Errors, MsgWardOfficerRequired)
			}
			if teamID == NoAssignment {
				result.Errors = append(result.Errors, MsgMaintenanceTeamRequired)
			}
		}
	}

	if target == domain.StatusReopened {
		switch {
		case role != domain.RoleAdministrator:
			result.Forbidden = true
			result.Errors = append(result.Errors, MsgOnlyAdminCanReopen)
		case current != domain.StatusClosed:
			result.Errors = append(result.Errors, MsgOnlyClosedCanBeReopened)
		default:
			result.Notes = append(result.Notes, NoteReopenCascade)
		}
	}

	if role == domain.RoleWardOfficer && complaint.NeedsTeamAssignment &&
		target != domain.StatusRegistered && !finalized && teamID == NoAssignment {
		result.Errors = append(result.Errors, MsgNeedsTeamAssignment)
	}

	return result
}

// changesAssignment reports whether patchID names a different relation than
// current. Echoing the stored value is not a change.
func changesAssignment(patchID *string, current domain.Assignment) bool {
	return patchID != nil && effectiveAssignmentID(patchID, current) != effectiveAssignmentID(nil, current)
}

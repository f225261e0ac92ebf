package service

import (
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	apperrors "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/pkg/util/errorutil"
)

const (
	defaultReopenComment  = "Complaint reopened by administrator"
	reopenReassignComment = "Complaint returned to ASSIGNED after reopening; maintenance team assignment cleared"
)

// ReopenComplaint runs the reopen cascade on a copy of complaint. The copy
// rests in ASSIGNED with the maintenance team cleared and two new log
// entries, CLOSED→REOPENED then REOPENED→ASSIGNED, which are also returned
// so the caller can persist them.
func ReopenComplaint(complaint *domain.Complaint, actor domain.Actor, comment string, now time.Time) (*domain.Complaint, []domain.StatusLogEntry, error) {
	if actor.Role != domain.RoleAdministrator {
		return nil, nil, apperrors.NewForbidden(MsgOnlyAdminCanReopen)
	}
	if complaint.Status != domain.StatusClosed {
		return nil, nil, apperrors.NewValidationErrors([]string{MsgOnlyClosedCanBeReopened})
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = defaultReopenComment
	}

	updated := complaint.Clone()
	teamID := ResolveAssignmentID(updated.MaintenanceTeam)
	if isAssignedID(teamID) && ResolveAssignmentID(updated.AssignedTo) == teamID {
		updated.AssignedTo = domain.Unassigned()
	}
	updated.MaintenanceTeam = domain.Unassigned()
	updated.Status = domain.StatusAssigned
	updated.NeedsTeamAssignment = true

	seq := complaint.LastLogSequence()
	reopened := newStatusLogEntry(seq+1, domain.StatusClosed, domain.StatusReopened, comment, actor, now)
	reassigned := newStatusLogEntry(seq+2, domain.StatusReopened, domain.StatusAssigned, reopenReassignComment, actor, now)
	updated.StatusLogs = append(updated.StatusLogs, reopened, reassigned)

	return updated, updated.StatusLogs[len(updated.StatusLogs)-2:], nil
}

func newStatusLogEntry(seq int, from, to domain.ComplaintStatus, comment string, actor domain.Actor, now time.Time) domain.StatusLogEntry {
	entry := domain.StatusLogEntry{
		Sequence:  seq,
		ToStatus:  to,
		Timestamp: now,
	}
	if from != "" {
		entry.FromStatus = &from
	}
	if comment != "" {
		entry.Comment = &comment
	}
	if actor.ID != "" {
		actorID := actor.ID
		entry.ActorID = &actorID
	}
	return entry
}

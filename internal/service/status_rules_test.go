package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

func statusPtr(s domain.ComplaintStatus) *domain.ComplaintStatus { return &s }

func priorityPtr(p domain.Priority) *domain.Priority { return &p }

func strPtr(s string) *string { return &s }

func TestGetAvailableStatusOptions(t *testing.T) {
	all := []domain.ComplaintStatus{
		domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress,
		domain.StatusResolved, domain.StatusClosed, domain.StatusReopened,
	}
	maintenance := map[domain.ComplaintStatus][]domain.ComplaintStatus{
		domain.StatusRegistered: {domain.StatusInProgress, domain.StatusResolved},
		domain.StatusAssigned:   {domain.StatusAssigned, domain.StatusInProgress},
		domain.StatusInProgress: {domain.StatusInProgress, domain.StatusResolved},
		domain.StatusResolved:   {domain.StatusResolved},
		domain.StatusClosed:     {domain.StatusInProgress, domain.StatusResolved},
		domain.StatusReopened:   {domain.StatusReopened, domain.StatusInProgress},
	}

	for _, current := range all {
		assert.Equal(t, maintenance[current], GetAvailableStatusOptions(domain.RoleMaintenanceTeam, current), "maintenance from %s", current)
		assert.Equal(t, []domain.ComplaintStatus{
			domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress,
			domain.StatusResolved, domain.StatusClosed,
		}, GetAvailableStatusOptions(domain.RoleWardOfficer, current), "ward officer from %s", current)
		assert.Equal(t, all, GetAvailableStatusOptions(domain.RoleAdministrator, current), "admin from %s", current)
		assert.Equal(t, []domain.ComplaintStatus{
			domain.StatusRegistered, domain.StatusAssigned, domain.StatusInProgress, domain.StatusResolved,
		}, GetAvailableStatusOptions(domain.RoleCitizen, current), "citizen from %s", current)
	}
}

func TestGetAvailableStatusOptionsOnlyAdminGetsReopened(t *testing.T) {
	roles := []domain.Role{domain.RoleCitizen, domain.RoleWardOfficer, domain.RoleMaintenanceTeam, domain.RoleAdministrator, domain.Role("AUDITOR")}
	for _, role := range roles {
		for _, current := range domain.AllStatuses {
			if current == domain.StatusReopened && role == domain.RoleMaintenanceTeam {
				continue
			}
			got := containsStatus(GetAvailableStatusOptions(role, current), domain.StatusReopened)
			assert.Equal(t, role == domain.RoleAdministrator, got, "%s from %s", role, current)
		}
	}
}

func TestGetAvailableStatusOptionsReturnsCopy(t *testing.T) {
	options := GetAvailableStatusOptions(domain.RoleAdministrator, domain.StatusClosed)
	options[0] = domain.StatusClosed

	assert.Equal(t, domain.StatusRegistered, GetAvailableStatusOptions(domain.RoleAdministrator, domain.StatusClosed)[0])
}

func TestValidate(t *testing.T) {
	open := func(status domain.ComplaintStatus) *domain.Complaint {
		return &domain.Complaint{
			ID:              "c1",
			Status:          status,
			Priority:        domain.PriorityMedium,
			WardOfficer:     domain.Unassigned(),
			MaintenanceTeam: domain.Unassigned(),
		}
	}

	tests := []struct {
		name      string
		role      domain.Role
		complaint *domain.Complaint
		patch     ComplaintPatch
		want      []string
		forbidden bool
	}{
		{
			name:      "ward officer assigns without team",
			role:      domain.RoleWardOfficer,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
			want:      []string{MsgMaintenanceTeamRequired},
		},
		{
			name:      "ward officer assigns with team",
			role:      domain.RoleWardOfficer,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned), MaintenanceTeamID: strPtr("mt-1")},
		},
		{
			name:      "ward officer assigns with team none",
			role:      domain.RoleWardOfficer,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned), MaintenanceTeamID: strPtr("NONE")},
			want:      []string{MsgMaintenanceTeamRequired},
		},
		{
			name:      "admin assigns with neither officer nor team",
			role:      domain.RoleAdministrator,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
			want:      []string{MsgWardOfficerRequired, MsgMaintenanceTeamRequired},
		},
		{
			name: "admin assigns using stored record relations",
			role: domain.RoleAdministrator,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusRegistered)
				c.WardOfficer = domain.AssignByRecord(domain.AssignmentRecord{ID: "wo-1", FullName: "Asha"})
				c.MaintenanceTeam = domain.AssignByID("mt-1")
				return c
			}(),
			patch: ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
		},
		{
			name:      "assigned on finalized complaint skips assignment rule",
			role:      domain.RoleAdministrator,
			complaint: open(domain.StatusResolved),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
		},
		{
			name:      "maintenance resolves in progress complaint",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusInProgress),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusResolved)},
		},
		{
			name:      "maintenance moves back to assigned",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusInProgress),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
			want: []string{
				"You don't have permission to set status to 'ASSIGNED'. Available options: IN_PROGRESS, RESOLVED",
				MsgMaintenanceNoAssigned,
			},
			forbidden: true,
		},
		{
			name:      "maintenance sets registered",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusAssigned),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusRegistered)},
			want: []string{
				"You don't have permission to set status to 'REGISTERED'. Available options: ASSIGNED, IN_PROGRESS",
				MsgMaintenanceNoRegistered,
			},
			forbidden: true,
		},
		{
			name:      "maintenance keeps assigned",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusAssigned),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
		},
		{
			name:      "maintenance changes priority",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusAssigned),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusInProgress), Priority: priorityPtr(domain.PriorityHigh)},
			want:      []string{MsgMaintenanceNoPriority},
		},
		{
			name:      "maintenance repeats current priority",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusAssigned),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusInProgress), Priority: priorityPtr(domain.PriorityMedium)},
		},
		{
			name:      "citizen closes",
			role:      domain.RoleCitizen,
			complaint: open(domain.StatusResolved),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusClosed)},
			want: []string{
				"You don't have permission to set status to 'CLOSED'. Available options: REGISTERED, ASSIGNED, IN_PROGRESS, RESOLVED",
			},
			forbidden: true,
		},
		{
			name:      "ward officer reopens",
			role:      domain.RoleWardOfficer,
			complaint: open(domain.StatusClosed),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusReopened)},
			want: []string{
				"You don't have permission to set status to 'REOPENED'. Available options: REGISTERED, ASSIGNED, IN_PROGRESS, RESOLVED, CLOSED",
				MsgOnlyAdminCanReopen,
			},
			forbidden: true,
		},
		{
			name:      "admin reopens resolved complaint",
			role:      domain.RoleAdministrator,
			complaint: open(domain.StatusResolved),
			patch:     ComplaintPatch{Status: statusPtr(domain.StatusReopened)},
			want:      []string{MsgOnlyClosedCanBeReopened},
		},
		{
			name: "ward officer progresses complaint needing a team",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.NeedsTeamAssignment = true
				return c
			}(),
			patch: ComplaintPatch{Status: statusPtr(domain.StatusInProgress)},
			want:  []string{MsgNeedsTeamAssignment},
		},
		{
			name: "ward officer supplies team for complaint needing one",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.NeedsTeamAssignment = true
				return c
			}(),
			patch: ComplaintPatch{Status: statusPtr(domain.StatusInProgress), MaintenanceTeamID: strPtr("mt-2")},
		},
		{
			name: "ward officer moves complaint needing a team back to registered",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.NeedsTeamAssignment = true
				return c
			}(),
			patch: ComplaintPatch{Status: statusPtr(domain.StatusRegistered)},
		},
		{
			name: "ward officer assigns complaint needing a team lists both problems",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.NeedsTeamAssignment = true
				return c
			}(),
			patch: ComplaintPatch{Status: statusPtr(domain.StatusAssigned)},
			want:  []string{MsgMaintenanceTeamRequired, MsgNeedsTeamAssignment},
		},
		{
			name:      "patch without status validates against current status",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusResolved),
			patch:     ComplaintPatch{Remarks: strPtr("checked")},
		},
		{
			name:      "invalid priority",
			role:      domain.RoleAdministrator,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{Priority: priorityPtr("URGENT")},
			want:      []string{"Invalid priority 'URGENT'."},
		},
		{
			name: "ward officer replaces ward officer",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.WardOfficer = domain.AssignByID("wo-1")
				c.MaintenanceTeam = domain.AssignByID("mt-1")
				return c
			}(),
			patch:     ComplaintPatch{WardOfficerID: strPtr("wo-2")},
			want:      []string{MsgOnlyAdminSetsOfficer},
			forbidden: true,
		},
		{
			name: "ward officer echoes stored ward officer",
			role: domain.RoleWardOfficer,
			complaint: func() *domain.Complaint {
				c := open(domain.StatusAssigned)
				c.WardOfficer = domain.AssignByRecord(domain.AssignmentRecord{ID: "wo-1", FullName: "Asha"})
				c.MaintenanceTeam = domain.AssignByID("mt-1")
				return c
			}(),
			patch: ComplaintPatch{WardOfficerID: strPtr("wo-1")},
		},
		{
			name:      "maintenance team reassigns the team",
			role:      domain.RoleMaintenanceTeam,
			complaint: open(domain.StatusInProgress),
			patch:     ComplaintPatch{MaintenanceTeamID: strPtr("mt-9")},
			want:      []string{MsgOnlyStaffAssignTeam},
			forbidden: true,
		},
		{
			name:      "citizen sets legacy assignee",
			role:      domain.RoleCitizen,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{AssignedToID: strPtr("mt-9")},
			want:      []string{MsgOnlyStaffAssignTeam},
			forbidden: true,
		},
		{
			name:      "citizen clears an already empty team",
			role:      domain.RoleCitizen,
			complaint: open(domain.StatusRegistered),
			patch:     ComplaintPatch{MaintenanceTeamID: strPtr("none")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.patch, tt.role, tt.complaint)
			assert.Equal(t, tt.want, result.Errors)
			assert.Equal(t, tt.forbidden, result.Forbidden)
			assert.Equal(t, tt.want, Validate(tt.patch, tt.role, tt.complaint))
		})
	}
}

func TestValidateAdminReopenCarriesNote(t *testing.T) {
	complaint := &domain.Complaint{Status: domain.StatusClosed}

	result := Evaluate(ComplaintPatch{Status: statusPtr(domain.StatusReopened)}, domain.RoleAdministrator, complaint)

	assert.True(t, result.OK())
	assert.Equal(t, []string{NoteReopenCascade}, result.Notes)
}

func TestValidateIsIdempotentAndPure(t *testing.T) {
	complaint := &domain.Complaint{
		ID:                  "c1",
		Status:              domain.StatusAssigned,
		Priority:            domain.PriorityLow,
		NeedsTeamAssignment: true,
		MaintenanceTeam:     domain.Unassigned(),
		WardOfficer:         domain.AssignByID("wo-1"),
	}
	before := *complaint
	patch := ComplaintPatch{Status: statusPtr(domain.StatusClosed), Priority: priorityPtr(domain.PriorityHigh)}

	first := Validate(patch, domain.RoleMaintenanceTeam, complaint)
	second := Validate(patch, domain.RoleMaintenanceTeam, complaint)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, before, *complaint)
}

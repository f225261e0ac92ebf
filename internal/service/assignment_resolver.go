package service

import (
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// NoAssignment is the canonical identifier of an absent relation.
const NoAssignment = "none"

// ResolveAssignmentID returns a bare identifier or a record's id verbatim,
// and "none" for an absent relation.
func ResolveAssignmentID(a domain.Assignment) string {
	switch a.Kind {
	case domain.AssignmentByID:
		return a.ID
	case domain.AssignmentByRecord:
		if a.Record != nil {
			return a.Record.ID
		}
	}
	return NoAssignment
}

// ResolveAssignmentName returns a display name for a relation, nil when unassigned.
func ResolveAssignmentName(a domain.Assignment) *string {
	switch a.Kind {
	case domain.AssignmentByID:
		if a.ID != "" && !strings.EqualFold(a.ID, NoAssignment) {
			name := a.ID
			return &name
		}
	case domain.AssignmentByRecord:
		if a.Record == nil {
			return nil
		}
		for _, candidate := range []string{a.Record.FullName, a.Record.Email, a.Record.ID} {
			if candidate != "" {
				name := candidate
				return &name
			}
		}
	}
	return nil
}

// isAssignedID treats blank and "none" (any case) as unassigned.
func isAssignedID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && !strings.EqualFold(id, NoAssignment)
}

// assignmentFromInput turns a patch identifier into a relation.
func assignmentFromInput(id string) domain.Assignment {
	if !isAssignedID(id) {
		return domain.Unassigned()
	}
	return domain.AssignByID(strings.TrimSpace(id))
}

// effectiveAssignmentID is the identifier an update would leave in place:
// the patch value when supplied, otherwise the stored relation.
func effectiveAssignmentID(patchID *string, current domain.Assignment) string {
	if patchID != nil {
		if !isAssignedID(*patchID) {
			return NoAssignment
		}
		return strings.TrimSpace(*patchID)
	}
	id := ResolveAssignmentID(current)
	if !isAssignedID(id) {
		return NoAssignment
	}
	return id
}

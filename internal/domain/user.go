package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the sole authorization axis of the complaint engine.
type Role string

const (
	RoleCitizen         Role = "CITIZEN"
	RoleWardOfficer     Role = "WARD_OFFICER"
	RoleMaintenanceTeam Role = "MAINTENANCE_TEAM"
	RoleAdministrator   Role = "ADMINISTRATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWardOfficer, RoleMaintenanceTeam, RoleAdministrator:
		return true
	}
	return false
}

// ParseRole converts raw input into a known role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// User is a portal account: citizen, officer, field crew or administrator.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	WardID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identifies the user performing an engine operation.
type Actor struct {
	ID   string
	Role Role
}

// ActorFor builds an Actor from a stored user.
func ActorFor(user *User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{ID: user.ID, Role: user.Role}
}

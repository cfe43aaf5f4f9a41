// Package domain holds the identity model: normalized roles, departments,
// and the capability set resolved once at the identity boundary. Handlers
// build an Actor from the authenticated principal and pass it down; services
// never inspect raw role strings.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Role is a normalized employee role.
type Role string

const (
	RoleCounsellor  Role = "counsellor"
	RoleWFH         Role = "wfh"
	RoleAdmission   Role = "admission"
	RoleLoanOfficer Role = "loan_officer"
	RoleManager     Role = "manager"
	RoleSuperAdmin  Role = "super_admin"
)

// Department identifies the team that can own a registration stage.
type Department string

const (
	DepartmentCounsellor Department = "counsellor"
	DepartmentAdmission  Department = "admission"
	DepartmentLoan       Department = "loan"
)

// EmployeeStatus is the activation state of an employee account.
type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "active"
	StatusInactive EmployeeStatus = "inactive"
)

// NormalizeRole maps the display-role strings used by older imports of the
// employee directory onto the canonical role identifiers.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, " ", "_"))) {
	case "counsellor", "counselor":
		return RoleCounsellor
	case "wfh", "work_from_home":
		return RoleWFH
	case "admission", "admissions":
		return RoleAdmission
	case "loan", "loan_officer":
		return RoleLoanOfficer
	case "manager":
		return RoleManager
	case "super_admin", "super_administrator", "superadmin":
		return RoleSuperAdmin
	default:
		return Role(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// DepartmentForRole returns the department a role belongs to.
// Super admins and managers have no single department; they pass ownership
// checks through capabilities instead.
func DepartmentForRole(role Role) Department {
	switch role {
	case RoleCounsellor, RoleWFH:
		return DepartmentCounsellor
	case RoleAdmission:
		return DepartmentAdmission
	case RoleLoanOfficer:
		return DepartmentLoan
	default:
		return ""
	}
}

// Capabilities is the set of permissions derived from a role. It replaces
// per-handler role string checks with predicates evaluated in one place.
type Capabilities struct {
	role Role
}

// CapabilitiesForRole resolves the capability set for a normalized role.
func CapabilitiesForRole(role Role) Capabilities {
	return Capabilities{role: role}
}

// IsSuperAdmin reports whether the actor holds the global-admin capability.
func (c Capabilities) IsSuperAdmin() bool {
	return c.role == RoleSuperAdmin
}

// CanOwn reports whether the actor may act on a registration currently owned
// by the given department.
func (c Capabilities) CanOwn(dept Department) bool {
	if c.IsSuperAdmin() || c.role == RoleManager {
		return true
	}
	return DepartmentForRole(c.role) == dept
}

// CanConvertLeads reports whether the actor may convert a lead into a
// registration.
func (c Capabilities) CanConvertLeads() bool {
	return c.IsSuperAdmin() || DepartmentForRole(c.role) == DepartmentCounsellor
}

// CanPurge reports whether the actor may hard-delete test records.
func (c Capabilities) CanPurge() bool {
	return c.IsSuperAdmin()
}

// CanManageEmployees reports whether the actor may administer the directory.
func (c Capabilities) CanManageEmployees() bool {
	return c.IsSuperAdmin() || c.role == RoleManager
}

// Actor is the authenticated principal passed into every core operation.
type Actor struct {
	ID           uuid.UUID
	Role         Role
	Department   Department
	Capabilities Capabilities
}

// NewActor builds an Actor from raw claim values, normalizing the role and
// resolving the capability set.
func NewActor(id uuid.UUID, rawRole string) Actor {
	role := NormalizeRole(rawRole)
	return Actor{
		ID:           id,
		Role:         role,
		Department:   DepartmentForRole(role),
		Capabilities: CapabilitiesForRole(role),
	}
}

// AssignableRoles are the roles eligible for automatic lead assignment.
var AssignableRoles = []Role{RoleCounsellor, RoleWFH, RoleAdmission}

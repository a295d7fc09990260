package domain

import (
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Role enumerates the actors of the helpdesk.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// MaxSuperAdmins caps super_admin accounts process-wide.
const MaxSuperAdmins = 2

// ParseRole converts a raw claim or column value into a Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleCustomer, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return Role(raw), true
	}
	return "", false
}

// User is any account: customer, agent, admin or super_admin.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	DepartmentID *string
	// CreatedBy is an audit-only reference to the creating account.
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignDepartment binds the user to a department. Customers never hold one.
func (u *User) AssignDepartment(departmentID string) error {
	if u.Role == RoleCustomer {
		return apperrors.NewValidationError("customers cannot be assigned to a department", map[string]any{"user_id": u.ID})
	}
	u.DepartmentID = &departmentID
	return nil
}

// InDepartment reports whether the user is bound to the given department.
func (u *User) InDepartment(departmentID *string) bool {
	if u == nil || u.DepartmentID == nil || departmentID == nil {
		return false
	}
	return *u.DepartmentID == *departmentID
}

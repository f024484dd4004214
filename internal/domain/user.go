package domain

import "time"

// Role identifies an audience within the marketplace.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleExecutor Role = "EXECUTOR"
)

// RoleSet is the capability set held by a user. A user may hold several
// roles at once.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// Intersects reports whether the set holds any of the required roles.
func (s RoleSet) Intersects(required ...Role) bool {
	for _, role := range required {
		if s.Has(role) {
			return true
		}
	}
	return false
}

// Slice returns roles in a stable order for token claims.
func (s RoleSet) Slice() []Role {
	ordered := []Role{RoleAdmin, RoleCustomer, RoleExecutor}
	out := make([]Role, 0, len(s))
	for _, role := range ordered {
		if s.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

// Viewer resolves which unread flag a read should flip when the caller
// holds several roles. Admin wins over customer, customer over executor.
func (s RoleSet) Viewer() Role {
	switch {
	case s.Has(RoleAdmin):
		return RoleAdmin
	case s.Has(RoleCustomer):
		return RoleCustomer
	case s.Has(RoleExecutor):
		return RoleExecutor
	default:
		return ""
	}
}

// User is the account record shared by admins, customers and executors.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	IsCustomer   bool
	IsExecutor   bool
	Name         *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Company *Company // present for customers on detail reads
}

// Roles exposes the stored role booleans as a set.
func (u *User) Roles() RoleSet {
	set := RoleSet{}
	if u.IsAdmin {
		set[RoleAdmin] = struct{}{}
	}
	if u.IsCustomer {
		set[RoleCustomer] = struct{}{}
	}
	if u.IsExecutor {
		set[RoleExecutor] = struct{}{}
	}
	return set
}

// Actor is the authenticated caller handed to the engine.
type Actor struct {
	UserID int64
	Roles  RoleSet
}

// IsAdmin reports admin capability.
func (a Actor) IsAdmin() bool { return a.Roles.Has(RoleAdmin) }

package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Capability is a single permission checked by the services. Handlers never
// compare role strings directly.
type Capability int

const (
	CapManageProjects Capability = iota
	CapLeadProjects
	CapManageTasks
	CapUpdateTaskStatus
	CapRecordExpenses
	CapRunScan
	CapManageUsers
	CapViewAll
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapManageProjects, CapLeadProjects, CapManageTasks, CapUpdateTaskStatus,
		CapRecordExpenses, CapRunScan, CapManageUsers, CapViewAll,
	},
	RoleManager: {
		CapManageProjects, CapLeadProjects, CapManageTasks, CapUpdateTaskStatus,
		CapRecordExpenses, CapRunScan,
	},
	RoleUser: {
		CapUpdateTaskStatus,
	},
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Identity is the acting user as supplied by the authentication layer.
type Identity struct {
	UserID primitive.ObjectID
	Role   Role
}

func (i Identity) Can(c Capability) bool {
	return i.Role.Can(c)
}

// Require returns a Forbidden error when the identity lacks c.
func (i Identity) Require(c Capability) error {
	if !i.Can(c) {
		return Forbiddenf("role %q is not allowed to perform this action", i.Role)
	}
	return nil
}

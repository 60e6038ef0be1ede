// Package access holds the request-scoped identity and the role predicates every domain operation checks.
package access

import (
	"github.com/iatic/ecole/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// MsgForbidden is the message of role check failures.
const MsgForbidden = "Accès non autorisé"

var Roles = []string{RoleStudent, RoleTeacher, RoleAdmin}

// ErrForbidden is returned when the caller's role is not allowed to run an operation.
var ErrForbidden = core.NewAuthorizationError(MsgForbidden)

// Identity is the authenticated caller, as carried by its token.
type Identity struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
}

func (id Identity) IsStudent() bool { return id.Role == RoleStudent }
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require fails with ErrForbidden unless id holds one of roles.
func Require(id Identity, roles ...string) error {
	for _, role := range roles {
		if id.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

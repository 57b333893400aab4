// internal/app/policy/userpolicy/userpolicy.go

// Package userpolicy provides authorization policies for directory
// records (users, classes, departments).
//
// Authorization rules:
//   - Admins can manage users and see everyone
//   - Teachers can view students in their own department
//   - Everyone can view themself
//   - Admins and teachers can modify class structure
//
// Predicates are pure: they operate on records the caller has already
// loaded and fail closed on unknown roles or missing context.
package userpolicy

import (
	"github.com/classline/classline/internal/domain/models"
)

// CanManageUsers reports whether the actor may create, edit, or remove
// user accounts. Admin only.
func CanManageUsers(actor models.User) bool {
	return actor.Role == models.RoleAdmin
}

// CanViewUser reports whether the actor may view the target's profile.
//
//   - Admins can view anyone
//   - Teachers can view students in the same department
//   - Anyone can view themself
func CanViewUser(actor, target models.User) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role == models.RoleTeacher && target.Role == models.RoleStudent {
		if actor.SameDepartment(target) {
			return true
		}
	}
	return !actor.ID.IsZero() && actor.ID == target.ID
}

// CanModifyClassStructure reports whether the actor may create classes
// and departments or change their membership.
func CanModifyClassStructure(actor models.User) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RoleTeacher
}

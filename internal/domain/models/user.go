// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles understood by the platform. A user's role is fixed for the
// lifetime of a session; changing it is an out-of-band administrative
// action, never something the messaging core does.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// IsValidRole checks if a value is a known role.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleTeacher || role == RoleStudent
}

// User represents admins, teachers, and students.
//
// NOTE:
//   - DepartmentID is set for teachers and students, nil for admins.
//   - ClassID is set for students only.
//   - Class rosters live on the Class document (StudentIDs); ClassID
//     here is the back-reference the directory store keeps consistent
//     when assigning students.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Role         string              `bson:"role" json:"role"`                 // admin | teacher | student
	DepartmentID *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`
	ClassID      *primitive.ObjectID `bson:"class_id,omitempty" json:"class_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SameDepartment reports whether both users carry a department and it is
// the same one.
func (u User) SameDepartment(other User) bool {
	if u.DepartmentID == nil || other.DepartmentID == nil {
		return false
	}
	return *u.DepartmentID == *other.DepartmentID
}

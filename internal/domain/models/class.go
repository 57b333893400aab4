// internal/domain/models/class.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class is a student cohort inside a department.
//
// DepartmentName is a back-reference, not ownership; the department's
// ClassIDs list is the authoritative mapping. ClassTeacherID is the
// single teacher allowed to broadcast into the class (nil until one is
// assigned).
type Class struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	NameCI         string               `bson:"name_ci" json:"name_ci"`
	DepartmentName string               `bson:"department_name" json:"department_name"`
	StudentIDs     []primitive.ObjectID `bson:"student_ids" json:"student_ids"`
	ClassTeacherID *primitive.ObjectID  `bson:"class_teacher_id,omitempty" json:"class_teacher_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasStudent reports whether the user id is on the class roster.
func (c Class) HasStudent(id primitive.ObjectID) bool {
	for _, sid := range c.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// IsClassTeacher reports whether the user id is the assigned class teacher.
func (c Class) IsClassTeacher(id primitive.ObjectID) bool {
	return c.ClassTeacherID != nil && *c.ClassTeacherID == id
}

// internal/domain/models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department groups classes and the teachers who work in them.
//
// ClassIDs is an ordered back-reference: every id in it must resolve to
// a Class whose DepartmentName equals this department's Name. The
// directory store maintains that invariant when classes are created.
type Department struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name       string               `bson:"name" json:"name"`
	NameCI     string               `bson:"name_ci" json:"name_ci"`
	ClassIDs   []primitive.ObjectID `bson:"class_ids" json:"class_ids"`
	TeacherIDs []primitive.ObjectID `bson:"teacher_ids" json:"teacher_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

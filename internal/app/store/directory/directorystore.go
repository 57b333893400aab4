// internal/app/store/directory/directorystore.go

// Package directorystore holds the Department, Class, and User-profile
// records and the membership mutations that keep them consistent. The
// messaging core only reads from it; the provisioning mutations are
// exposed to the admin surface.
package directorystore

import (
	"context"
	"errors"

	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDuplicateDepartmentName = errors.New("a department with this name already exists")
	ErrDuplicateClassName      = errors.New("a class with this name already exists")
)

// Store is the directory contract.
//
// The membership mutations enforce the directory invariants: a class
// roster only contains students and each rostered student's ClassID
// points back at the class; a department's ClassIDs only reference
// classes created under it.
type Store interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetClass(ctx context.Context, id primitive.ObjectID) (models.Class, error)
	GetDepartment(ctx context.Context, name string) (models.Department, error)
	ListStudentsOfClass(ctx context.Context, classID primitive.ObjectID) ([]models.User, error)

	CreateUser(ctx context.Context, u models.User) (models.User, error)
	AddDepartment(ctx context.Context, name string) (models.Department, error)
	AddClass(ctx context.Context, name, departmentName string) (models.Class, error)
	AssignStudentToClass(ctx context.Context, classID, studentID primitive.ObjectID) error
	AssignTeacherToDepartment(ctx context.Context, departmentName string, teacherID primitive.ObjectID) error
	AssignClassTeacher(ctx context.Context, classID, teacherID primitive.ObjectID) error
}

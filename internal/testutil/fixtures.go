package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/classline/classline/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role. Class and
// department assignments are made separately.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleAdmin)
}

// CreateTeacher creates a test teacher user.
func (f *Fixtures) CreateTeacher(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleTeacher)
}

// CreateStudent creates a test student user.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleStudent)
}

// CreateDepartment creates a test department.
func (f *Fixtures) CreateDepartment(ctx context.Context, name string) models.Department {
	f.t.Helper()

	now := time.Now().UTC()
	dept := models.Department{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("departments").InsertOne(ctx, dept)
	if err != nil {
		f.t.Fatalf("failed to create test department: %v", err)
	}

	return dept
}

// CreateClass creates a test class under the named department with the
// given roster and class teacher.
func (f *Fixtures) CreateClass(ctx context.Context, name, departmentName string, teacherID *primitive.ObjectID, studentIDs ...primitive.ObjectID) models.Class {
	f.t.Helper()

	now := time.Now().UTC()
	class := models.Class{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		DepartmentName: departmentName,
		StudentIDs:     studentIDs,
		ClassTeacherID: teacherID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := f.db.Collection("classes").InsertOne(ctx, class)
	if err != nil {
		f.t.Fatalf("failed to create test class: %v", err)
	}

	return class
}

// CreateMessage inserts a message directly, bypassing validation and
// policy, for read-path tests.
func (f *Fixtures) CreateMessage(ctx context.Context, scope models.Scope, msgType string, sender models.User, title string) models.Message {
	f.t.Helper()

	msg := models.Message{
		ID:         primitive.NewObjectID(),
		Scope:      scope,
		Type:       msgType,
		Title:      title,
		Body:       "fixture body",
		SenderID:   sender.ID,
		SenderRole: sender.Role,
		CreatedAt:  time.Now().UTC(),
	}
	if models.IsPollBearing(msgType) {
		msg.PollResults = map[string]string{}
	}

	_, err := f.db.Collection("messages").InsertOne(ctx, msg)
	if err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}

	return msg
}

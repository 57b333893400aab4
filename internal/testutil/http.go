package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/classline/classline/internal/app/system/auth"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID           string
	Name         string
	Role         string
	DepartmentID string
	ClassID      string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Test Admin",
		Role: models.RoleAdmin,
	}
}

// TeacherUser returns a TestUser with teacher role.
func TeacherUser() TestUser {
	return TestUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Test Teacher",
		Role: models.RoleTeacher,
	}
}

// StudentUser returns a TestUser with student role in the given class.
func StudentUser(classID primitive.ObjectID) TestUser {
	return TestUser{
		ID:      primitive.NewObjectID().Hex(),
		Name:    "Test Student",
		Role:    models.RoleStudent,
		ClassID: classID.Hex(),
	}
}

// SessionUserFor builds the session form of a directory user.
func SessionUserFor(u models.User) TestUser {
	tu := TestUser{
		ID:   u.ID.Hex(),
		Name: u.FullName,
		Role: u.Role,
	}
	if u.DepartmentID != nil {
		tu.DepartmentID = u.DepartmentID.Hex()
	}
	if u.ClassID != nil {
		tu.ClassID = u.ClassID.Hex()
	}
	return tu
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:           user.ID,
		Name:         user.Name,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		ClassID:      user.ClassID,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

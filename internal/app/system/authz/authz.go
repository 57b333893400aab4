// internal/app/system/authz/authz.go

// Package authz resolves the signed-in session to a current directory
// record so permission decisions always see fresh role and membership
// data, never stale cookie contents.
package authz

import (
	"net/http"
	"strings"

	"github.com/classline/classline/internal/app/system/auth"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the session user's role (lowercased), name, Mongo
// ObjectID, and a found flag. If no user is present in context or the
// user ID is malformed, it returns "visitor", "", NilObjectID, false,
// so ok=true always means a valid authenticated user.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor loads the directory record behind the session. Sessions only
// carry an identity; role and membership come from the store so that
// re-assignments take effect on the next request. A session whose user
// no longer exists yields ErrNotFound.
func Actor(r *http.Request, directory directorystore.Store) (models.User, error) {
	_, _, userID, ok := UserCtx(r)
	if !ok {
		return models.User{}, models.ErrPermissionDenied
	}
	return directory.GetUser(r.Context(), userID)
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsTeacher reports whether the current request's user is a teacher.
func IsTeacher(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleTeacher
}

// IsStudent reports whether the current request's user is a student.
func IsStudent(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleStudent
}

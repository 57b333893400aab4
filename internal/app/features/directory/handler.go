// internal/app/features/directory/handler.go

// Package directory is the provisioning and lookup surface for users,
// departments, and classes. Structure changes (creating departments
// and classes, assigning teachers and students) are the school-setup
// operations; lookups power profile pages and roster views.
package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/classline/classline/internal/app/policy/userpolicy"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/app/system/authz"
	"github.com/classline/classline/internal/app/system/httpjson"
	"github.com/classline/classline/internal/app/system/limits"
	"github.com/classline/classline/internal/app/system/timeouts"
	"github.com/classline/classline/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for the directory endpoints.
type Handler struct {
	Directory directorystore.Store
	Log       *zap.Logger
}

func NewHandler(directory directorystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Directory: directory, Log: logger}
}

// actor resolves the signed-in user's directory record, writing the
// error response itself when that fails.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	actor, err := authz.Actor(r, h.Directory)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return models.User{}, false
	}
	return actor, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		httpjson.BadRequest(w, "malformed "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Provisioning                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateUser handles POST /users. Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanManageUsers(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}

	var req struct {
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		httpjson.Error(w, h.Log, models.Invalid("full_name", "full name is required"))
		return
	}
	if !models.IsValidRole(req.Role) {
		httpjson.Error(w, h.Log, models.Invalid("role", "must be admin, teacher, or student"))
		return
	}

	user, err := h.Directory.CreateUser(ctx, models.User{FullName: req.FullName, Role: req.Role})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("user created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", user.Role),
		zap.String("created_by", actor.ID.Hex()))
	httpjson.Respond(w, http.StatusCreated, user)
}

// CreateDepartment handles POST /departments.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpjson.Error(w, h.Log, models.Invalid("name", "name is required"))
		return
	}

	dept, err := h.Directory.AddDepartment(ctx, req.Name)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusCreated, dept)
}

// CreateClass handles POST /classes. The department must already exist.
func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}

	var req struct {
		Name           string `json:"name"`
		DepartmentName string `json:"department_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.DepartmentName = strings.TrimSpace(req.DepartmentName)
	if req.Name == "" {
		httpjson.Error(w, h.Log, models.Invalid("name", "name is required"))
		return
	}
	if req.DepartmentName == "" {
		httpjson.Error(w, h.Log, models.Invalid("department_name", "department name is required"))
		return
	}

	class, err := h.Directory.AddClass(ctx, req.Name, req.DepartmentName)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("class created",
		zap.String("class_id", class.ID.Hex()),
		zap.String("department", req.DepartmentName))
	httpjson.Respond(w, http.StatusCreated, class)
}

// AssignStudent handles POST /classes/{classID}/students.
func (h *Handler) AssignStudent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}
	classID, ok := pathID(w, r, "classID")
	if !ok {
		return
	}

	var req struct {
		StudentID string `json:"student_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		httpjson.Error(w, h.Log, models.Invalid("student_id", "malformed student id"))
		return
	}

	if err := h.Directory.AssignStudentToClass(ctx, classID, studentID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignClassTeacher handles POST /classes/{classID}/teacher.
func (h *Handler) AssignClassTeacher(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}
	classID, ok := pathID(w, r, "classID")
	if !ok {
		return
	}

	var req struct {
		TeacherID string `json:"teacher_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	teacherID, err := primitive.ObjectIDFromHex(req.TeacherID)
	if err != nil {
		httpjson.Error(w, h.Log, models.Invalid("teacher_id", "malformed teacher id"))
		return
	}

	if err := h.Directory.AssignClassTeacher(ctx, classID, teacherID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignDepartmentTeacher handles POST /departments/{name}/teachers.
func (h *Handler) AssignDepartmentTeacher(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}
	name := chi.URLParam(r, "name")

	var req struct {
		TeacherID string `json:"teacher_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	teacherID, err := primitive.ObjectIDFromHex(req.TeacherID)
	if err != nil {
		httpjson.Error(w, h.Log, models.Invalid("teacher_id", "malformed teacher id"))
		return
	}

	if err := h.Directory.AssignTeacherToDepartment(ctx, name, teacherID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Lookups                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// GetUser handles GET /users/{userID}. Visibility follows the profile
// rules: admins see everyone, teachers see students of their own
// department, everyone sees themself.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	target, err := h.Directory.GetUser(ctx, userID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !userpolicy.CanViewUser(actor, target) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}
	httpjson.Respond(w, http.StatusOK, target)
}

// ListStudents handles GET /classes/{classID}/students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanModifyClassStructure(actor) {
		httpjson.Error(w, h.Log, models.ErrPermissionDenied)
		return
	}
	classID, ok := pathID(w, r, "classID")
	if !ok {
		return
	}

	students, err := h.Directory.ListStudentsOfClass(ctx, classID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, students)
}

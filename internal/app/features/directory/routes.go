// internal/app/features/directory/routes.go
package directory

import (
	"github.com/classline/classline/internal/app/system/auth"
	"github.com/classline/classline/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the directory endpoints on the supplied
// router. Role gates here are the cheap first filter; the handlers
// re-check against the live directory record.
func MountRoutes(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Post("/users", h.CreateUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin, models.RoleTeacher))
		r.Post("/departments", h.CreateDepartment)
		r.Post("/departments/{name}/teachers", h.AssignDepartmentTeacher)
		r.Post("/classes", h.CreateClass)
		r.Post("/classes/{classID}/students", h.AssignStudent)
		r.Post("/classes/{classID}/teacher", h.AssignClassTeacher)
		r.Get("/classes/{classID}/students", h.ListStudents)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/users/{userID}", h.GetUser)
	})
}

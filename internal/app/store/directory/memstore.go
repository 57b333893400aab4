// internal/app/store/directory/memstore.go
package directorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/classline/classline/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is the in-memory directory used by the "memory"
// store_backend and by tests.
type MemStore struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]models.User
	classes     map[primitive.ObjectID]models.Class
	departments map[primitive.ObjectID]models.Department
}

var _ Store = (*MemStore)(nil)

func NewMem() *MemStore {
	return &MemStore{
		users:       make(map[primitive.ObjectID]models.User),
		classes:     make(map[primitive.ObjectID]models.Class),
		departments: make(map[primitive.ObjectID]models.Department),
	}
}

func (s *MemStore) GetUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (s *MemStore) GetClass(_ context.Context, id primitive.ObjectID) (models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[id]
	if !ok {
		return models.Class{}, models.ErrNotFound
	}
	return cloneClass(c), nil
}

func (s *MemStore) GetDepartment(_ context.Context, name string) (models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.findDepartment(name)
	if !ok {
		return models.Department{}, models.ErrNotFound
	}
	return d, nil
}

func (s *MemStore) ListStudentsOfClass(ctx context.Context, classID primitive.ObjectID) ([]models.User, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	students := []models.User{}
	for _, id := range class.StudentIDs {
		if u, ok := s.users[id]; ok {
			students = append(students, u)
		}
	}
	s.mu.Unlock()

	sort.Slice(students, func(i, j int) bool { return students[i].FullNameCI < students[j].FullNameCI })
	return students, nil
}

func (s *MemStore) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *MemStore) AddDepartment(_ context.Context, name string) (models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findDepartment(name); ok {
		return models.Department{}, ErrDuplicateDepartmentName
	}
	now := time.Now().UTC()
	d := models.Department{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		ClassIDs:   []primitive.ObjectID{},
		TeacherIDs: []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.departments[d.ID] = d
	return d, nil
}

func (s *MemStore) AddClass(_ context.Context, name, departmentName string) (models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dept, ok := s.findDepartment(departmentName)
	if !ok {
		return models.Class{}, models.ErrNotFound
	}
	nameCI := text.Fold(name)
	for _, c := range s.classes {
		if c.NameCI == nameCI {
			return models.Class{}, ErrDuplicateClassName
		}
	}

	now := time.Now().UTC()
	c := models.Class{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         nameCI,
		DepartmentName: dept.Name,
		StudentIDs:     []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.classes[c.ID] = c

	dept.ClassIDs = append(dept.ClassIDs, c.ID)
	dept.UpdatedAt = now
	s.departments[dept.ID] = dept
	return cloneClass(c), nil
}

func (s *MemStore) AssignStudentToClass(_ context.Context, classID, studentID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.users[studentID]
	if !ok {
		return models.ErrNotFound
	}
	if student.Role != models.RoleStudent {
		return models.Invalid("user_id", "user is not a student")
	}
	class, ok := s.classes[classID]
	if !ok {
		return models.ErrNotFound
	}

	if !class.HasStudent(studentID) {
		class.StudentIDs = append(class.StudentIDs, studentID)
		class.UpdatedAt = time.Now().UTC()
		s.classes[classID] = class
	}
	student.ClassID = &classID
	s.users[studentID] = student
	return nil
}

func (s *MemStore) AssignTeacherToDepartment(_ context.Context, departmentName string, teacherID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	teacher, ok := s.users[teacherID]
	if !ok {
		return models.ErrNotFound
	}
	if teacher.Role != models.RoleTeacher {
		return models.Invalid("user_id", "user is not a teacher")
	}
	dept, ok := s.findDepartment(departmentName)
	if !ok {
		return models.ErrNotFound
	}

	present := false
	for _, id := range dept.TeacherIDs {
		if id == teacherID {
			present = true
			break
		}
	}
	if !present {
		dept.TeacherIDs = append(dept.TeacherIDs, teacherID)
		dept.UpdatedAt = time.Now().UTC()
		s.departments[dept.ID] = dept
	}
	deptID := dept.ID
	teacher.DepartmentID = &deptID
	s.users[teacherID] = teacher
	return nil
}

func (s *MemStore) AssignClassTeacher(_ context.Context, classID, teacherID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	teacher, ok := s.users[teacherID]
	if !ok {
		return models.ErrNotFound
	}
	if teacher.Role != models.RoleTeacher {
		return models.Invalid("user_id", "user is not a teacher")
	}
	class, ok := s.classes[classID]
	if !ok {
		return models.ErrNotFound
	}

	tid := teacherID
	class.ClassTeacherID = &tid
	class.UpdatedAt = time.Now().UTC()
	s.classes[classID] = class
	return nil
}

// findDepartment looks a department up by folded name. Callers hold s.mu.
func (s *MemStore) findDepartment(name string) (models.Department, bool) {
	nameCI := text.Fold(name)
	for _, d := range s.departments {
		if d.NameCI == nameCI {
			return d, true
		}
	}
	return models.Department{}, false
}

func cloneClass(c models.Class) models.Class {
	ids := make([]primitive.ObjectID, len(c.StudentIDs))
	copy(ids, c.StudentIDs)
	c.StudentIDs = ids
	return c
}

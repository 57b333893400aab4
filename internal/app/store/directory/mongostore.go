// internal/app/store/directory/mongostore.go
package directorystore

import (
	"context"
	"errors"
	"time"

	"github.com/classline/classline/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps the directory in the users, classes, and
// departments collections. Name uniqueness is enforced by the unique
// name_ci indexes created at startup.
type MongoStore struct {
	users       *mongo.Collection
	classes     *mongo.Collection
	departments *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:       db.Collection("users"),
		classes:     db.Collection("classes"),
		departments: db.Collection("departments"),
	}
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, mapFindErr(err)
	}
	return u, nil
}

func (s *MongoStore) GetClass(ctx context.Context, id primitive.ObjectID) (models.Class, error) {
	var c models.Class
	if err := s.classes.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Class{}, mapFindErr(err)
	}
	return c, nil
}

func (s *MongoStore) GetDepartment(ctx context.Context, name string) (models.Department, error) {
	var d models.Department
	if err := s.departments.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&d); err != nil {
		return models.Department{}, mapFindErr(err)
	}
	return d, nil
}

func (s *MongoStore) ListStudentsOfClass(ctx context.Context, classID primitive.ObjectID) ([]models.User, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(class.StudentIDs) == 0 {
		return []models.User{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": class.StudentIDs}}, opts)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	students := []models.User{}
	if err := cur.All(ctx, &students); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return students, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return models.User{}, models.StoreUnavailable(err)
	}
	return u, nil
}

func (s *MongoStore) AddDepartment(ctx context.Context, name string) (models.Department, error) {
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
	if _, err := s.departments.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Department{}, ErrDuplicateDepartmentName
		}
		return models.Department{}, models.StoreUnavailable(err)
	}
	return d, nil
}

// AddClass creates the class under the department and records the
// class id in the department's ClassIDs back-reference.
func (s *MongoStore) AddClass(ctx context.Context, name, departmentName string) (models.Class, error) {
	dept, err := s.GetDepartment(ctx, departmentName)
	if err != nil {
		return models.Class{}, err
	}

	now := time.Now().UTC()
	c := models.Class{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		DepartmentName: dept.Name,
		StudentIDs:     []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.classes.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Class{}, ErrDuplicateClassName
		}
		return models.Class{}, models.StoreUnavailable(err)
	}

	_, err = s.departments.UpdateByID(ctx, dept.ID, bson.M{
		"$addToSet": bson.M{"class_ids": c.ID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Class{}, models.StoreUnavailable(err)
	}
	return c, nil
}

func (s *MongoStore) AssignStudentToClass(ctx context.Context, classID, studentID primitive.ObjectID) error {
	student, err := s.GetUser(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Role != models.RoleStudent {
		return models.Invalid("user_id", "user is not a student")
	}

	now := time.Now().UTC()
	res, err := s.classes.UpdateByID(ctx, classID, bson.M{
		"$addToSet": bson.M{"student_ids": studentID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}

	// Keep the student's back-reference consistent with the roster.
	_, err = s.users.UpdateByID(ctx, studentID, bson.M{
		"$set": bson.M{"class_id": classID, "updated_at": now},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

func (s *MongoStore) AssignTeacherToDepartment(ctx context.Context, departmentName string, teacherID primitive.ObjectID) error {
	teacher, err := s.GetUser(ctx, teacherID)
	if err != nil {
		return err
	}
	if teacher.Role != models.RoleTeacher {
		return models.Invalid("user_id", "user is not a teacher")
	}

	dept, err := s.GetDepartment(ctx, departmentName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.departments.UpdateByID(ctx, dept.ID, bson.M{
		"$addToSet": bson.M{"teacher_ids": teacherID},
		"$set":      bson.M{"updated_at": now},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}

	_, err = s.users.UpdateByID(ctx, teacherID, bson.M{
		"$set": bson.M{"department_id": dept.ID, "updated_at": now},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

func (s *MongoStore) AssignClassTeacher(ctx context.Context, classID, teacherID primitive.ObjectID) error {
	teacher, err := s.GetUser(ctx, teacherID)
	if err != nil {
		return err
	}
	if teacher.Role != models.RoleTeacher {
		return models.Invalid("user_id", "user is not a teacher")
	}

	res, err := s.classes.UpdateByID(ctx, classID, bson.M{
		"$set": bson.M{"class_teacher_id": teacherID, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return models.StoreUnavailable(err)
}

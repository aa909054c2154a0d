package course

import (
	"database/sql"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classbook/core"
)

type Course struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Year int    `json:"year" db:"year"`
}

type Student struct {
	ID        int           `json:"id" db:"id"`
	FirstName string        `json:"first_name" db:"first_name"`
	LastName  string        `json:"last_name" db:"last_name"`
	CourseID  sql.NullInt64 `json:"-" db:"course_id"`
}

// DisplayName renders the student as "LastName, FirstName".
func (s Student) DisplayName() string {
	return s.LastName + ", " + s.FirstName
}

// Assignment links a teacher to a course they teach.
type Assignment struct {
	ID        int `json:"id" db:"id"`
	TeacherID int `json:"teacher_id" db:"teacher_id"`
	CourseID  int `json:"course_id" db:"course_id"`
}

// TeacherCourses is a teacher with the courses assigned to them.
type TeacherCourses struct {
	TeacherID int      `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Profile   string   `json:"profile"`
	Courses   []Course `json:"courses"`
}

// CourseStudents is a course with its roster.
type CourseStudents struct {
	Course
	Students []Student `json:"students"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100"`
	Year int    `json:"year" form:"year" validate:"required,gte=1900,lte=2999"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// NewStudent contains information needed to enrol a new Student.
type NewStudent struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,notblank,max=100"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,notblank,max=100"`
	CourseID  int    `json:"course_id" form:"course_id" validate:"required,gt=0"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	return validate.Struct(ns)
}

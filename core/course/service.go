package course

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course not found")
	ErrStudentNotFound    = core.NewNotFoundError("student not found")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment not found")
)

type (
	// TeacherCourseRow is one (teacher, course) pair of a left join between
	// teachers and their assignments; the course columns are NULL for unassigned teachers.
	TeacherCourseRow struct {
		TeacherID  int            `db:"teacher_id"`
		Username   string         `db:"username"`
		FirstName  string         `db:"first_name"`
		LastName   string         `db:"last_name"`
		Profile    string         `db:"profile"`
		CourseID   sql.NullInt64  `db:"course_id"`
		CourseName sql.NullString `db:"course_name"`
		CourseYear sql.NullInt64  `db:"course_year"`
	}

	Repository interface {
		CreateCourse(ctx context.Context, exec core.DBExecutor, crs Course) (Course, error)
		QueryCourses(ctx context.Context, exec core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, exec core.DBExecutor, id int) (Course, error)
		// DeleteCourse removes the course along with its students, assignments, grades and attendance.
		DeleteCourse(ctx context.Context, exec core.DBExecutor, id int) error

		CreateStudent(ctx context.Context, exec core.DBExecutor, std Student) (Student, error)
		GetStudent(ctx context.Context, exec core.DBExecutor, id int) (Student, error)
		// QueryStudents returns the roster ordered by last name then first name.
		QueryStudents(ctx context.Context, exec core.DBExecutor, courseID int) ([]Student, error)
		QueryAllStudents(ctx context.Context, exec core.DBExecutor) ([]Student, error)
		// DeleteStudent removes the student along with their grades and attendance.
		DeleteStudent(ctx context.Context, exec core.DBExecutor, id int) error

		GetAssignment(ctx context.Context, exec core.DBExecutor, teacherID, courseID int) (Assignment, error)
		CreateAssignment(ctx context.Context, exec core.DBExecutor, asg Assignment) (Assignment, error)
		QueryTeacherCourses(ctx context.Context, exec core.DBExecutor, teacherID int) ([]Course, error)
		QueryTeacherCourseRows(ctx context.Context, exec core.DBExecutor) ([]TeacherCourseRow, error)
		DeleteAssignments(ctx context.Context, exec core.DBExecutor, teacherID int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, db core.DB, nc NewCourse) (Course, error) {
	crs, err := svc.repo.CreateCourse(ctx, db, Course{Name: nc.Name, Year: nc.Year})
	return crs, errors.Wrap(err, "creating course")
}

func (svc *Service) Query(ctx context.Context, db core.DB) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, db)
}

func (svc *Service) Get(ctx context.Context, db core.DB, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, db, id)
}

// Delete removes the course and everything attached to it in a single transaction.
func (svc *Service) Delete(ctx context.Context, db core.DB, id int) error {
	if _, err := svc.repo.GetCourse(ctx, db, id); err != nil {
		return err
	}
	return core.InTx(ctx, db, func(tx core.DBExecutor) error {
		return errors.Wrap(svc.repo.DeleteCourse(ctx, tx, id), "deleting course")
	})
}

func (svc *Service) CreateStudent(ctx context.Context, db core.DB, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetCourse(ctx, db, ns.CourseID); err != nil {
		return Student{}, err
	}
	std, err := svc.repo.CreateStudent(ctx, db, Student{
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		CourseID:  sql.NullInt64{Int64: int64(ns.CourseID), Valid: true},
	})
	return std, errors.Wrap(err, "creating student")
}

func (svc *Service) Students(ctx context.Context, db core.DB, courseID int) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, db, courseID)
}

// GroupedStudents lists every course with its roster; courses are ordered by name.
func (svc *Service) GroupedStudents(ctx context.Context, db core.DB) ([]CourseStudents, error) {
	courses, err := svc.repo.QueryCourses(ctx, db)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	students, err := svc.repo.QueryAllStudents(ctx, db)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	byCourse := make(map[int64][]Student, len(courses))
	for _, std := range students {
		if std.CourseID.Valid {
			byCourse[std.CourseID.Int64] = append(byCourse[std.CourseID.Int64], std)
		}
	}
	grouped := make([]CourseStudents, 0, len(courses))
	for _, crs := range courses {
		stds := byCourse[int64(crs.ID)]
		if stds == nil {
			stds = []Student{}
		}
		grouped = append(grouped, CourseStudents{Course: crs, Students: stds})
	}
	return grouped, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, db core.DB, id int) error {
	if _, err := svc.repo.GetStudent(ctx, db, id); err != nil {
		return err
	}
	return core.InTx(ctx, db, func(tx core.DBExecutor) error {
		return errors.Wrap(svc.repo.DeleteStudent(ctx, tx, id), "deleting student")
	})
}

// Assign links the teacher to the course unless they already are.
func (svc *Service) Assign(ctx context.Context, exec core.DBExecutor, teacherID, courseID int) error {
	if _, err := svc.repo.GetCourse(ctx, exec, courseID); err != nil {
		return err
	}
	_, err := svc.repo.GetAssignment(ctx, exec, teacherID, courseID)
	switch {
	case err == nil:
		return nil
	case err != ErrAssignmentNotFound:
		return errors.Wrap(err, "finding assignment")
	}
	_, err = svc.repo.CreateAssignment(ctx, exec, Assignment{TeacherID: teacherID, CourseID: courseID})
	return errors.Wrap(err, "creating assignment")
}

func (svc *Service) UnassignAll(ctx context.Context, exec core.DBExecutor, teacherID int) error {
	return svc.repo.DeleteAssignments(ctx, exec, teacherID)
}

func (svc *Service) TeacherCourses(ctx context.Context, db core.DB, teacherID int) ([]Course, error) {
	return svc.repo.QueryTeacherCourses(ctx, db, teacherID)
}

// TeachersWithCourses lists every teacher, including those without any course.
func (svc *Service) TeachersWithCourses(ctx context.Context, db core.DB) ([]TeacherCourses, error) {
	rows, err := svc.repo.QueryTeacherCourseRows(ctx, db)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher courses")
	}

	index := make(map[int]int)
	teachers := make([]TeacherCourses, 0)
	for _, row := range rows {
		i, ok := index[row.TeacherID]
		if !ok {
			i = len(teachers)
			index[row.TeacherID] = i
			teachers = append(teachers, TeacherCourses{
				TeacherID: row.TeacherID,
				Username:  row.Username,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				Profile:   row.Profile,
				Courses:   []Course{},
			})
		}
		if row.CourseID.Valid {
			teachers[i].Courses = append(teachers[i].Courses, Course{
				ID:   int(row.CourseID.Int64),
				Name: row.CourseName.String,
				Year: int(row.CourseYear.Int64),
			})
		}
	}
	return teachers, nil
}

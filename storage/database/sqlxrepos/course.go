package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
)

type CourseRepository struct{}

var _ course.Repository = (*CourseRepository)(nil) // interface compliance check

func NewCourseRepository() *CourseRepository {
	return &CourseRepository{}
}

// Courses

func (repo CourseRepository) CreateCourse(ctx context.Context, exec core.DBExecutor, crs course.Course) (course.Course, error) {
	id, err := insertReturningID(ctx, exec, "INSERT INTO courses (name, year) VALUES (?, ?) RETURNING id", crs.Name, crs.Year)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	crs.ID = id
	return crs, nil
}

func (repo CourseRepository) QueryCourses(ctx context.Context, exec core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := exec.SelectContext(ctx, &courses, "SELECT id, name, year FROM courses ORDER BY name, year, id")
	return courses, errors.Wrap(err, "querying courses")
}

func (repo CourseRepository) GetCourse(ctx context.Context, exec core.DBExecutor, id int) (course.Course, error) {
	var crs course.Course
	if err := exec.GetContext(ctx, &crs, exec.Rebind("SELECT id, name, year FROM courses WHERE id = ?"), id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return crs, nil
}

// DeleteCourse expects to run inside a transaction.
func (repo CourseRepository) DeleteCourse(ctx context.Context, exec core.DBExecutor, id int) error {
	stmts := []struct{ query, msg string }{
		{"DELETE FROM attendance WHERE course_id = ?", "deleting attendance"},
		{"DELETE FROM grades WHERE course_id = ?", "deleting grades"},
		{"DELETE FROM attendance WHERE student_id IN (SELECT id FROM students WHERE course_id = ?)", "deleting students attendance"},
		{"DELETE FROM grades WHERE student_id IN (SELECT id FROM students WHERE course_id = ?)", "deleting students grades"},
		{"DELETE FROM students WHERE course_id = ?", "deleting students"},
		{"DELETE FROM teacher_courses WHERE course_id = ?", "deleting assignments"},
		{"DELETE FROM courses WHERE id = ?", "deleting course"},
	}
	for _, stmt := range stmts {
		if err := execRebind(ctx, exec, stmt.query, id); err != nil {
			return errors.Wrap(err, stmt.msg)
		}
	}
	return nil
}

// Students

const studentColumns = "id, first_name, last_name, course_id"

func (repo CourseRepository) CreateStudent(ctx context.Context, exec core.DBExecutor, std course.Student) (course.Student, error) {
	id, err := insertReturningID(ctx, exec,
		"INSERT INTO students (first_name, last_name, course_id) VALUES (?, ?, ?) RETURNING id",
		std.FirstName, std.LastName, std.CourseID,
	)
	if err != nil {
		return course.Student{}, errors.Wrap(err, "inserting student")
	}
	std.ID = id
	return std, nil
}

func (repo CourseRepository) GetStudent(ctx context.Context, exec core.DBExecutor, id int) (course.Student, error) {
	var std course.Student
	if err := exec.GetContext(ctx, &std, exec.Rebind("SELECT "+studentColumns+" FROM students WHERE id = ?"), id); err != nil {
		return course.Student{}, trapNoRowsErr(err, course.ErrStudentNotFound, "finding student")
	}
	return std, nil
}

func (repo CourseRepository) QueryStudents(ctx context.Context, exec core.DBExecutor, courseID int) ([]course.Student, error) {
	students := make([]course.Student, 0)
	err := exec.SelectContext(ctx, &students,
		exec.Rebind("SELECT "+studentColumns+" FROM students WHERE course_id = ? ORDER BY last_name, first_name, id"),
		courseID,
	)
	return students, errors.Wrap(err, "querying students")
}

func (repo CourseRepository) QueryAllStudents(ctx context.Context, exec core.DBExecutor) ([]course.Student, error) {
	students := make([]course.Student, 0)
	err := exec.SelectContext(ctx, &students,
		"SELECT "+studentColumns+" FROM students ORDER BY course_id, last_name, first_name, id",
	)
	return students, errors.Wrap(err, "querying students")
}

// DeleteStudent expects to run inside a transaction.
func (repo CourseRepository) DeleteStudent(ctx context.Context, exec core.DBExecutor, id int) error {
	stmts := []struct{ query, msg string }{
		{"DELETE FROM attendance WHERE student_id = ?", "deleting attendance"},
		{"DELETE FROM grades WHERE student_id = ?", "deleting grades"},
		{"DELETE FROM students WHERE id = ?", "deleting student"},
	}
	for _, stmt := range stmts {
		if err := execRebind(ctx, exec, stmt.query, id); err != nil {
			return errors.Wrap(err, stmt.msg)
		}
	}
	return nil
}

// Assignments

func (repo CourseRepository) GetAssignment(ctx context.Context, exec core.DBExecutor, teacherID, courseID int) (course.Assignment, error) {
	var asg course.Assignment
	err := exec.GetContext(ctx, &asg,
		exec.Rebind("SELECT id, teacher_id, course_id FROM teacher_courses WHERE teacher_id = ? AND course_id = ?"),
		teacherID, courseID,
	)
	if err != nil {
		return course.Assignment{}, trapNoRowsErr(err, course.ErrAssignmentNotFound, "finding assignment")
	}
	return asg, nil
}

func (repo CourseRepository) CreateAssignment(ctx context.Context, exec core.DBExecutor, asg course.Assignment) (course.Assignment, error) {
	id, err := insertReturningID(ctx, exec,
		"INSERT INTO teacher_courses (teacher_id, course_id) VALUES (?, ?) RETURNING id",
		asg.TeacherID, asg.CourseID,
	)
	if err != nil {
		return course.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	asg.ID = id
	return asg, nil
}

func (repo CourseRepository) QueryTeacherCourses(ctx context.Context, exec core.DBExecutor, teacherID int) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := exec.SelectContext(ctx, &courses,
		exec.Rebind(`SELECT c.id, c.name, c.year FROM courses c
		JOIN teacher_courses tc ON tc.course_id = c.id
		WHERE tc.teacher_id = ?
		ORDER BY c.name, c.year, c.id`),
		teacherID,
	)
	return courses, errors.Wrap(err, "querying teacher courses")
}

func (repo CourseRepository) QueryTeacherCourseRows(ctx context.Context, exec core.DBExecutor) ([]course.TeacherCourseRow, error) {
	rows := make([]course.TeacherCourseRow, 0)
	err := exec.SelectContext(ctx, &rows,
		exec.Rebind(`SELECT u.id AS teacher_id, u.username, u.first_name, u.last_name, u.profile,
			c.id AS course_id, c.name AS course_name, c.year AS course_year
		FROM users u
		LEFT JOIN teacher_courses tc ON tc.teacher_id = u.id
		LEFT JOIN courses c ON c.id = tc.course_id
		WHERE u.role = ?
		ORDER BY u.last_name, u.first_name, u.id, c.name, c.id`),
		user.RoleTeacher,
	)
	return rows, errors.Wrap(err, "querying teachers with courses")
}

func (repo CourseRepository) DeleteAssignments(ctx context.Context, exec core.DBExecutor, teacherID int) error {
	return errors.Wrap(execRebind(ctx, exec, "DELETE FROM teacher_courses WHERE teacher_id = ?", teacherID), "deleting assignments")
}

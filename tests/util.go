package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
)

// PrepareDB opens a fresh migrated in-memory SQLite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewLogger returns a logger printing nowhere, rollbar disabled.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{})
}

// NewValidate returns a validator with every custom validation registered.
func NewValidate() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func CreateUser(t *testing.T, db core.DBExecutor, uname, pwd, role string) user.User {
	t.Helper()
	usr := user.User{
		Username:  uname,
		FirstName: uname,
		LastName:  "Test",
		Role:      role,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := sqlxrepos.NewUserRepository().CreateUser(context.Background(), db, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, db core.DBExecutor, name string, year int) course.Course {
	t.Helper()
	crs, err := sqlxrepos.NewCourseRepository().CreateCourse(context.Background(), db, course.Course{Name: name, Year: year})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateStudent(t *testing.T, db core.DBExecutor, courseID int, firstName, lastName string) course.Student {
	t.Helper()
	std, err := sqlxrepos.NewCourseRepository().CreateStudent(context.Background(), db, course.Student{
		FirstName: firstName,
		LastName:  lastName,
		CourseID:  sql.NullInt64{Int64: int64(courseID), Valid: true},
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func Assign(t *testing.T, db core.DBExecutor, teacherID, courseID int) {
	t.Helper()
	_, err := sqlxrepos.NewCourseRepository().CreateAssignment(context.Background(), db, course.Assignment{
		TeacherID: teacherID,
		CourseID:  courseID,
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
}

// CountRows counts the rows of table.
func CountRows(t *testing.T, db core.DBExecutor, table string) int {
	t.Helper()
	var n int
	if err := db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("CountRows(%s) failed: %v", table, err)
	}
	return n
}

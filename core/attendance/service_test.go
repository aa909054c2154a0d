package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
	"github.com/trezcool/classbook/tests"
)

var weekOf2024 = attendance.Week{Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}

func setup(t *testing.T) (*attendance.Service, core.DB) {
	db := testutil.PrepareDB(t)
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository())
	return attendance.NewService(sqlxrepos.NewAttendanceRepository(), crsSvc), db
}

func marks(cells map[int][]string) attendance.Marks {
	m := make(attendance.Marks)
	for sid, dates := range cells {
		for _, d := range dates {
			m[attendance.Key{StudentID: sid, Date: d}] = true
		}
	}
	return m
}

func TestService_RecordWeek(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, db, "Math101", 2024)
	alice := testutil.CreateStudent(t, db, crs.ID, "Alice", "Zed")
	bob := testutil.CreateStudent(t, db, crs.ID, "Bob", "Young")

	submitted := marks(map[int][]string{
		alice.ID: {"2024-01-01", "2024-01-03"},
		bob.ID:   {"2024-01-05"},
	})
	require.NoError(t, svc.RecordWeek(ctx, db, crs.ID, teacher.ID, weekOf2024, submitted))
	assert.Equal(t, 10, testutil.CountRows(t, db, "attendance"), "one row per (student, day)")

	matrix, err := svc.LoadWeek(ctx, db, crs.ID, teacher.ID, weekOf2024)
	require.NoError(t, err)
	assert.Equal(t, attendance.Matrix{
		alice.ID: {"2024-01-01": 1, "2024-01-02": 0, "2024-01-03": 1, "2024-01-04": 0, "2024-01-05": 0},
		bob.ID:   {"2024-01-01": 0, "2024-01-02": 0, "2024-01-03": 0, "2024-01-04": 0, "2024-01-05": 1},
	}, matrix)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, svc.RecordWeek(ctx, db, crs.ID, teacher.ID, weekOf2024, submitted))
		assert.Equal(t, 10, testutil.CountRows(t, db, "attendance"))

		again, err := svc.LoadWeek(ctx, db, crs.ID, teacher.ID, weekOf2024)
		require.NoError(t, err)
		assert.Equal(t, matrix, again)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, svc.RecordWeek(ctx, db, crs.ID, teacher.ID, weekOf2024, marks(map[int][]string{
			bob.ID: {"2024-01-01"},
		})))
		assert.Equal(t, 10, testutil.CountRows(t, db, "attendance"))

		got, err := svc.LoadWeek(ctx, db, crs.ID, teacher.ID, weekOf2024)
		require.NoError(t, err)
		assert.Equal(t, 0, got[alice.ID]["2024-01-01"])
		assert.Equal(t, 1, got[bob.ID]["2024-01-01"])
		assert.Equal(t, 0, got[bob.ID]["2024-01-05"])
	})

	t.Run("other teacher keeps own records", func(t *testing.T) {
		other := testutil.CreateUser(t, db, "other", "Zq8!vLmx2k", user.RoleTeacher)
		require.NoError(t, svc.RecordWeek(ctx, db, crs.ID, other.ID, weekOf2024, attendance.Marks{}))
		assert.Equal(t, 20, testutil.CountRows(t, db, "attendance"))

		got, err := svc.LoadWeek(ctx, db, crs.ID, teacher.ID, weekOf2024)
		require.NoError(t, err)
		assert.Equal(t, 1, got[bob.ID]["2024-01-01"])
	})

	t.Run("unknown course", func(t *testing.T) {
		err := svc.RecordWeek(ctx, db, 404, teacher.ID, weekOf2024, attendance.Marks{})
		assert.True(t, core.IsNotFound(err), err)
	})
}

func TestService_LoadWeek_noRecords(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, db, "Empty", 2024)
	std := testutil.CreateStudent(t, db, crs.ID, "Ann", "Ray")

	matrix, err := svc.LoadWeek(ctx, db, crs.ID, 1, weekOf2024)
	require.NoError(t, err)
	if assert.Len(t, matrix[std.ID], attendance.DaysPerWeek) {
		for d, flag := range matrix[std.ID] {
			assert.Equal(t, 0, flag, d)
		}
	}
}

func TestService_WeekView(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, db, "History", 2024)
	std := testutil.CreateStudent(t, db, crs.ID, "Ann", "Ray")
	require.NoError(t, svc.RecordWeek(ctx, db, crs.ID, teacher.ID, weekOf2024, marks(map[int][]string{
		std.ID: {"2024-01-02"},
	})))

	view, err := svc.WeekView(ctx, db, crs.ID, teacher.ID, weekOf2024)
	require.NoError(t, err)
	assert.Equal(t, crs, view.Course)
	assert.Equal(t, "2024-01-01", view.Start)
	assert.Equal(t, "2023-12-25", view.PreviousWeek)
	assert.Equal(t, "2024-01-08", view.NextWeek)
	assert.Equal(t, attendance.Day{Date: "2024-01-01", Name: "Monday"}, view.Days[0])
	assert.Equal(t, attendance.Day{Date: "2024-01-05", Name: "Friday"}, view.Days[4])
	if assert.Len(t, view.Students, 1) {
		assert.Equal(t, std.ID, view.Students[0].ID)
		assert.Equal(t, 1, view.Students[0].Attendance["2024-01-02"])
		assert.Equal(t, 0, view.Students[0].Attendance["2024-01-03"])
	}

	_, err = svc.WeekView(ctx, db, 404, teacher.ID, weekOf2024)
	assert.True(t, core.IsNotFound(err), err)
}

func TestService_Sheet(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	first := testutil.CreateUser(t, db, "first", "Zq8!vLmx2k", user.RoleTeacher)
	second := testutil.CreateUser(t, db, "second", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, db, "Math101", 2024)
	zed := testutil.CreateStudent(t, db, crs.ID, "Alice", "Zed")
	adams := testutil.CreateStudent(t, db, crs.ID, "Carl", "Adams")

	// first teacher records Zed on Monday only; Adams has no record at all
	recRepo := sqlxrepos.NewAttendanceRepository()
	_, err := recRepo.CreateRecord(ctx, db, attendance.Record{
		StudentID: zed.ID, TeacherID: first.ID, CourseID: crs.ID, Date: "2024-01-01", Present: 0,
	})
	require.NoError(t, err)
	// a newer record of another teacher wins
	_, err = recRepo.CreateRecord(ctx, db, attendance.Record{
		StudentID: zed.ID, TeacherID: second.ID, CourseID: crs.ID, Date: "2024-01-01", Present: 1,
	})
	require.NoError(t, err)
	_, err = recRepo.CreateRecord(ctx, db, attendance.Record{
		StudentID: zed.ID, TeacherID: first.ID, CourseID: crs.ID, Date: "2024-01-02", Present: 0,
	})
	require.NoError(t, err)
	// out of the week
	_, err = recRepo.CreateRecord(ctx, db, attendance.Record{
		StudentID: adams.ID, TeacherID: first.ID, CourseID: crs.ID, Date: "2024-01-08", Present: 1,
	})
	require.NoError(t, err)

	sheet, err := svc.Sheet(ctx, db, crs.ID, weekOf2024)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)

	assert.Equal(t, adams.ID, sheet.Rows[0].Student.ID, "ordered by last name")
	for _, cell := range sheet.Rows[0].Cells {
		assert.Equal(t, attendance.SymbolNoRecord, attendance.CellSymbol(cell))
	}

	assert.Equal(t, zed.ID, sheet.Rows[1].Student.ID)
	assert.Equal(t, []null.Bool{null.BoolFrom(true), null.BoolFrom(false), {}, {}, {}}, sheet.Rows[1].Cells)

	_, err = svc.Sheet(ctx, db, 404, weekOf2024)
	assert.True(t, core.IsNotFound(err), err)
}

package report_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
	"github.com/trezcool/classbook/core/report"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
	"github.com/trezcool/classbook/tests"
)

// captureRenderer keeps the last rendered document.
type captureRenderer struct {
	doc report.Document
	err error
}

func (r *captureRenderer) Render(w io.Writer, doc report.Document) error {
	r.doc = doc
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, doc.Title)
	return err
}

func (r *captureRenderer) Extension() string   { return "txt" }
func (r *captureRenderer) ContentType() string { return "text/plain" }

type fixture struct {
	svc     *report.Service
	attSvc  *attendance.Service
	gradSvc *grade.Service
	db      core.DB
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository())
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(), crsSvc)
	gradSvc := grade.NewService(sqlxrepos.NewGradeRepository(), crsSvc, testutil.NewLogger())
	return fixture{
		svc:     report.NewService(crsSvc, gradSvc, attSvc),
		attSvc:  attSvc,
		gradSvc: gradSvc,
		db:      db,
	}
}

func TestService_Roster(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	testutil.CreateStudent(t, fx.db, crs.ID, "Al", "Smith")
	testutil.CreateStudent(t, fx.db, crs.ID, "Jane", "Doe")

	rdr := &captureRenderer{}
	art, err := fx.svc.Roster(ctx, fx.db, crs.ID, rdr)
	require.NoError(t, err)
	assert.Equal(t, "Students_Math101.txt", art.Filename)
	assert.Equal(t, "text/plain", art.ContentType)
	assert.Equal(t, "Students of course: Math101 - Year 2024", art.Content.String())
	assert.Equal(t, []string{"Doe, Jane", "Smith, Al"}, rdr.doc.Paragraphs)
	assert.Nil(t, rdr.doc.Table)

	_, err = fx.svc.Roster(ctx, fx.db, 404, rdr)
	assert.True(t, core.IsNotFound(err), err)

	rdr.err = errors.New("disk full")
	_, err = fx.svc.Roster(ctx, fx.db, crs.ID, rdr)
	assert.Error(t, err)
}

func TestService_Grades(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, fx.db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	jane := testutil.CreateStudent(t, fx.db, crs.ID, "Jane", "Doe")
	al := testutil.CreateStudent(t, fx.db, crs.ID, "Al", "Smith")
	_, err := fx.gradSvc.SubmitGrades(ctx, fx.db, crs.ID, teacher.ID, map[int]string{jane.ID: "8.5", al.ID: ""})
	require.NoError(t, err)

	rdr := &captureRenderer{}
	art, err := fx.svc.Grades(ctx, fx.db, crs.ID, rdr)
	require.NoError(t, err)
	assert.Equal(t, "Grades_Math101.txt", art.Filename)
	assert.Equal(t, "Grades for course: Math101 - Year 2024", rdr.doc.Title)
	require.NotNil(t, rdr.doc.Table)
	assert.Equal(t, []string{"Student", "Grade"}, rdr.doc.Table.Header)
	assert.Equal(t, [][]string{{"Doe, Jane", "8.5"}, {"Smith, Al", ""}}, rdr.doc.Table.Rows)
}

func TestService_Attendance(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, fx.db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	jane := testutil.CreateStudent(t, fx.db, crs.ID, "Jane", "Doe")
	al := testutil.CreateStudent(t, fx.db, crs.ID, "Al", "Smith")
	week := attendance.Week{Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}

	marks := attendance.Marks{{StudentID: al.ID, Date: "2024-01-01"}: true}
	for _, day := range week.Days() {
		marks[attendance.Key{StudentID: jane.ID, Date: core.FormatDate(day)}] = true
	}
	require.NoError(t, fx.attSvc.RecordWeek(ctx, fx.db, crs.ID, teacher.ID, week, marks))

	rdr := &captureRenderer{}
	art, err := fx.svc.Attendance(ctx, fx.db, crs.ID, week, rdr)
	require.NoError(t, err)
	assert.Equal(t, "Attendance_Math101_01-01-2024.txt", art.Filename)
	assert.Equal(t, "Attendance for course: Math101 - Year 2024", rdr.doc.Title)
	assert.Equal(t, []string{"Week: 01/01/2024 - 05/01/2024"}, rdr.doc.Paragraphs)
	require.NotNil(t, rdr.doc.Table)
	assert.Equal(t, []string{
		"Student", "Monday\n01/01", "Tuesday\n02/01", "Wednesday\n03/01", "Thursday\n04/01", "Friday\n05/01",
	}, rdr.doc.Table.Header)
	assert.Equal(t, [][]string{
		{"Doe, Jane", "P", "P", "P", "P", "P"},
		{"Smith, Al", "P", "A", "A", "A", "A"},
	}, rdr.doc.Table.Rows)

	t.Run("week without records", func(t *testing.T) {
		_, err := fx.svc.Attendance(ctx, fx.db, crs.ID, week.Next(), rdr)
		require.NoError(t, err)
		for _, row := range rdr.doc.Table.Rows {
			assert.Equal(t, []string{"SR", "SR", "SR", "SR", "SR"}, row[1:])
		}
	})

	_, err = fx.svc.Attendance(ctx, fx.db, 404, week, rdr)
	assert.True(t, core.IsNotFound(err), err)
}

func TestService_noStudents(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, fx.db, "Empty", 2024)
	week := attendance.ResolveWeek(nil, time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))

	rdr := &captureRenderer{}
	_, err := fx.svc.Roster(ctx, fx.db, crs.ID, rdr)
	require.NoError(t, err)
	assert.Equal(t, "Students of course: Empty - Year 2024", rdr.doc.Title)
	assert.Empty(t, rdr.doc.Paragraphs)

	_, err = fx.svc.Grades(ctx, fx.db, crs.ID, rdr)
	require.NoError(t, err)
	assert.Len(t, rdr.doc.Table.Header, 2)
	assert.Empty(t, rdr.doc.Table.Rows)

	_, err = fx.svc.Attendance(ctx, fx.db, crs.ID, week, rdr)
	require.NoError(t, err)
	assert.Len(t, rdr.doc.Table.Header, 1+attendance.DaysPerWeek)
	assert.Empty(t, rdr.doc.Table.Rows)
}

package grade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
	"github.com/trezcool/classbook/tests"
)

// warnCounter counts warnings and forwards everything else nowhere.
type warnCounter struct {
	core.Logger
	warns int
}

func (l *warnCounter) Warn(string, ...interface{}) { l.warns++ }

func setup(t *testing.T) (*grade.Service, *warnCounter, core.DB) {
	db := testutil.PrepareDB(t)
	logger := &warnCounter{Logger: testutil.NewLogger()}
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository())
	return grade.NewService(sqlxrepos.NewGradeRepository(), crsSvc, logger), logger, db
}

func setToday(t *testing.T, y int, m time.Month, d int) {
	core.NowFunc = func() time.Time { return time.Date(y, m, d, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

func TestService_SubmitGrades(t *testing.T) {
	svc, logger, db := setup(t)
	ctx := context.Background()
	setToday(t, 2024, time.January, 2)

	teacher := testutil.CreateUser(t, db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, db, "Math101", 2024)
	jane := testutil.CreateStudent(t, db, crs.ID, "Jane", "Doe")
	al := testutil.CreateStudent(t, db, crs.ID, "Al", "Smith")

	res, err := svc.SubmitGrades(ctx, db, crs.ID, teacher.ID, map[int]string{jane.ID: "8.5", al.ID: ""})
	require.NoError(t, err)
	assert.Equal(t, grade.SubmitResult{Recorded: 1}, res)

	got, err := svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(8.5), got)

	got, err = svc.CurrentGrade(ctx, db, al.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	rows, err := svc.ExportRows(ctx, db, crs.ID)
	require.NoError(t, err)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "Doe, Jane", rows[0].DisplayName)
		assert.Equal(t, "8.5", rows[0].GradeText())
		assert.Equal(t, "Smith, Al", rows[1].DisplayName)
		assert.Equal(t, "", rows[1].GradeText())
	}

	t.Run("invalid entries skipped", func(t *testing.T) {
		res, err := svc.SubmitGrades(ctx, db, crs.ID, teacher.ID, map[int]string{jane.ID: "ten", al.ID: " 12 "})
		require.NoError(t, err)
		assert.Equal(t, grade.SubmitResult{Recorded: 1, Skipped: 1}, res)
		assert.Equal(t, 1, logger.warns)

		got, err := svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, null.Float64From(8.5), got, "unchanged")

		got, err = svc.CurrentGrade(ctx, db, al.ID, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, null.Float64From(12), got)
	})

	t.Run("non-finite entries skipped", func(t *testing.T) {
		warns := logger.warns
		for _, text := range []string{"inf", "+Inf", "-inf", "NaN"} {
			res, err := svc.SubmitGrades(ctx, db, crs.ID, teacher.ID, map[int]string{jane.ID: text})
			require.NoError(t, err, text)
			assert.Equal(t, grade.SubmitResult{Skipped: 1}, res, text)
		}
		assert.Equal(t, warns+4, logger.warns)

		got, err := svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, null.Float64From(8.5), got, "unchanged")

		rows, err := svc.ExportRows(ctx, db, crs.ID)
		require.NoError(t, err)
		for _, row := range rows {
			assert.NotContains(t, row.GradeText(), "Inf")
		}
	})

	t.Run("students of other courses ignored", func(t *testing.T) {
		other := testutil.CreateCourse(t, db, "Bio", 2024)
		stranger := testutil.CreateStudent(t, db, other.ID, "Sam", "Stranger")

		res, err := svc.SubmitGrades(ctx, db, crs.ID, teacher.ID, map[int]string{stranger.ID: "10"})
		require.NoError(t, err)
		assert.Equal(t, grade.SubmitResult{}, res)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.SubmitGrades(ctx, db, 404, teacher.ID, map[int]string{jane.ID: "1"})
		assert.True(t, core.IsNotFound(err), err)
	})
}

func TestService_CurrentGrade_latest(t *testing.T) {
	svc, _, db := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, db, "teach", "Zq8!vLmx2k", user.RoleTeacher)
	crs := testutil.CreateCourse(t, db, "Math101", 2024)
	jane := testutil.CreateStudent(t, db, crs.ID, "Jane", "Doe")
	submit := func(text string) {
		t.Helper()
		_, err := svc.SubmitGrades(ctx, db, crs.ID, teacher.ID, map[int]string{jane.ID: text})
		require.NoError(t, err)
	}

	setToday(t, 2024, time.January, 2)
	submit("7")
	setToday(t, 2024, time.January, 5)
	submit("9")

	got, err := svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(9), got, "later date wins")

	// same date: the last appended entry wins
	submit("6.5")
	got, err = svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(6.5), got)

	// an entry appended later but dated earlier does not win
	_, err = sqlxrepos.NewGradeRepository().CreateEntry(ctx, db, grade.Entry{
		StudentID: jane.ID, TeacherID: teacher.ID, CourseID: crs.ID, Value: 1, Date: "2024-01-03",
	})
	require.NoError(t, err)
	got, err = svc.CurrentGrade(ctx, db, jane.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(6.5), got)

	cg, err := svc.CourseGrades(ctx, db, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, crs, cg.Course)
	if assert.Len(t, cg.Students, 1) {
		assert.Equal(t, null.Float64From(6.5), cg.Students[0].Grade, "listing agrees with CurrentGrade")
	}
	assert.Equal(t, 4, testutil.CountRows(t, db, "grades"), "entries are appended")
}

func TestService_ExportRows_empty(t *testing.T) {
	svc, _, db := setup(t)
	crs := testutil.CreateCourse(t, db, "Empty", 2024)

	rows, err := svc.ExportRows(context.Background(), db, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

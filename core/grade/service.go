package grade

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
)

var (
	// errors
	ErrEntryNotFound = core.NewNotFoundError("grade not found")

	errNotFinite = errors.New("grade is not a finite number")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, exec core.DBExecutor, ent Entry) (Entry, error)
		// LatestEntry returns the entry with the latest date, the highest id breaking ties.
		LatestEntry(ctx context.Context, exec core.DBExecutor, studentID, courseID int) (Entry, error)
		// QueryCourseEntries returns the course entries ordered by date then id.
		QueryCourseEntries(ctx context.Context, exec core.DBExecutor, courseID int) ([]Entry, error)
	}

	// Roster is satisfied by *course.Service.
	Roster interface {
		Get(ctx context.Context, db core.DB, id int) (course.Course, error)
		Students(ctx context.Context, db core.DB, courseID int) ([]course.Student, error)
	}

	Service struct {
		repo   Repository
		roster Roster
		logger core.Logger
	}
)

func NewService(repo Repository, roster Roster, logger core.Logger) *Service {
	return &Service{repo: repo, roster: roster, logger: logger}
}

// SubmitGrades appends a grade dated today for every student of the course with a
// non-empty entry. Entries that are not numbers are logged and skipped.
func (svc *Service) SubmitGrades(ctx context.Context, db core.DB, courseID, teacherID int, entries map[int]string) (SubmitResult, error) {
	var res SubmitResult
	if _, err := svc.roster.Get(ctx, db, courseID); err != nil {
		return res, err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return res, errors.Wrap(err, "querying students")
	}

	today := core.FormatDate(core.Today())
	for _, std := range students {
		text := core.CleanString(entries[std.ID])
		if text == "" {
			continue
		}
		value, err := parseGrade(text)
		if err != nil {
			res.Skipped++
			svc.logger.Warn(
				fmt.Sprintf("skipping grade %q of student %d", text, std.ID),
				map[string]interface{}{"course_id": courseID, "teacher_id": teacherID, "student_id": std.ID},
			)
			continue
		}
		_, err = svc.repo.CreateEntry(ctx, db, Entry{
			StudentID: std.ID,
			TeacherID: teacherID,
			CourseID:  courseID,
			Value:     value,
			Date:      today,
		})
		if err != nil {
			return res, errors.Wrapf(err, "recording grade of student %d", std.ID)
		}
		res.Recorded++
	}
	return res, nil
}

// CurrentGrade returns the most recent grade of the student in the course, null if none.
func (svc *Service) CurrentGrade(ctx context.Context, db core.DB, studentID, courseID int) (null.Float64, error) {
	ent, err := svc.repo.LatestEntry(ctx, db, studentID, courseID)
	switch {
	case err == ErrEntryNotFound:
		return null.Float64{}, nil
	case err != nil:
		return null.Float64{}, errors.Wrap(err, "finding latest grade")
	}
	return null.Float64From(ent.Value), nil
}

// latestByStudent reduces the course entries to each student's current grade.
func (svc *Service) latestByStudent(ctx context.Context, db core.DB, courseID int) (map[int]null.Float64, error) {
	ents, err := svc.repo.QueryCourseEntries(ctx, db, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	latest := make(map[int]null.Float64)
	for _, ent := range ents { // ordered: the last one seen wins
		latest[ent.StudentID] = null.Float64From(ent.Value)
	}
	return latest, nil
}

// CourseGrades lists the course students with their current grade.
func (svc *Service) CourseGrades(ctx context.Context, db core.DB, courseID int) (CourseGrades, error) {
	crs, err := svc.roster.Get(ctx, db, courseID)
	if err != nil {
		return CourseGrades{}, err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return CourseGrades{}, errors.Wrap(err, "querying students")
	}
	latest, err := svc.latestByStudent(ctx, db, courseID)
	if err != nil {
		return CourseGrades{}, err
	}

	cg := CourseGrades{Course: crs, Students: make([]StudentGrade, 0, len(students))}
	for _, std := range students {
		cg.Students = append(cg.Students, StudentGrade{Student: std, Grade: latest[std.ID]})
	}
	return cg, nil
}

// ExportRows returns one row per course student, ungraded students included,
// ordered by last name then first name.
func (svc *Service) ExportRows(ctx context.Context, db core.DB, courseID int) ([]Row, error) {
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	latest, err := svc.latestByStudent(ctx, db, courseID)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(students))
	for _, std := range students {
		rows = append(rows, Row{DisplayName: std.DisplayName(), Grade: latest[std.ID]})
	}
	return rows, nil
}

// parseGrade reads a grade text; infinities and NaN are rejected.
func parseGrade(text string) (float64, error) {
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, errNotFinite
	}
	return value, nil
}

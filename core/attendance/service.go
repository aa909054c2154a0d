package attendance

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
)

var (
	// errors
	ErrRecordNotFound = core.NewNotFoundError("attendance record not found")
)

type (
	Repository interface {
		FindRecord(ctx context.Context, exec core.DBExecutor, studentID, teacherID, courseID int, date string) (Record, error)
		CreateRecord(ctx context.Context, exec core.DBExecutor, rec Record) (Record, error)
		UpdatePresence(ctx context.Context, exec core.DBExecutor, id, present int) error
		// QueryTeacherRecords returns the records a teacher wrote for the course between from and to (inclusive).
		QueryTeacherRecords(ctx context.Context, exec core.DBExecutor, courseID, teacherID int, from, to string) ([]Record, error)
		// QueryCourseRecords returns the records of every teacher of the course between from and to, oldest first.
		QueryCourseRecords(ctx context.Context, exec core.DBExecutor, courseID int, from, to string) ([]Record, error)
	}

	// Roster is satisfied by *course.Service.
	Roster interface {
		Get(ctx context.Context, db core.DB, id int) (course.Course, error)
		Students(ctx context.Context, db core.DB, courseID int) ([]course.Student, error)
	}

	Service struct {
		repo   Repository
		roster Roster
	}
)

func NewService(repo Repository, roster Roster) *Service {
	return &Service{repo: repo, roster: roster}
}

// RecordWeek writes one record per (student, day) of the week: an existing record
// has its flag overwritten, otherwise a new one is inserted. Cells absent from marks
// are stored as not present. Cells are written one by one; a failure leaves the
// cells already processed in place.
func (svc *Service) RecordWeek(ctx context.Context, db core.DB, courseID, teacherID int, week Week, marks Marks) error {
	if _, err := svc.roster.Get(ctx, db, courseID); err != nil {
		return err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	days := week.Days()
	for _, std := range students {
		for _, day := range days {
			date := core.FormatDate(day)
			present := boolToFlag(marks[Key{StudentID: std.ID, Date: date}])
			if err = svc.recordCell(ctx, db, std.ID, teacherID, courseID, date, present); err != nil {
				return errors.Wrapf(err, "recording attendance of student %d on %s", std.ID, date)
			}
		}
	}
	return nil
}

func (svc *Service) recordCell(ctx context.Context, exec core.DBExecutor, studentID, teacherID, courseID int, date string, present int) error {
	rec, err := svc.repo.FindRecord(ctx, exec, studentID, teacherID, courseID, date)
	switch {
	case err == nil:
		return svc.repo.UpdatePresence(ctx, exec, rec.ID, present)
	case err != ErrRecordNotFound:
		return err
	}
	_, err = svc.repo.CreateRecord(ctx, exec, Record{
		StudentID: studentID,
		TeacherID: teacherID,
		CourseID:  courseID,
		Date:      date,
		Present:   present,
	})
	return err
}

// LoadWeek returns every student's flag for each day of the week, 0 when no record exists.
func (svc *Service) LoadWeek(ctx context.Context, db core.DB, courseID, teacherID int, week Week) (Matrix, error) {
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return svc.loadWeek(ctx, db, courseID, teacherID, week, students)
}

func (svc *Service) loadWeek(ctx context.Context, db core.DB, courseID, teacherID int, week Week, students []course.Student) (Matrix, error) {
	recs, err := svc.repo.QueryTeacherRecords(ctx, db, courseID, teacherID, core.FormatDate(week.Start), core.FormatDate(week.End()))
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	stored := make(map[Key]int, len(recs))
	for _, rec := range recs {
		stored[Key{StudentID: rec.StudentID, Date: rec.Date}] = rec.Present
	}

	days := week.Days()
	matrix := make(Matrix, len(students))
	for _, std := range students {
		row := make(map[string]int, len(days))
		for _, day := range days {
			date := core.FormatDate(day)
			row[date] = stored[Key{StudentID: std.ID, Date: date}]
		}
		matrix[std.ID] = row
	}
	return matrix, nil
}

// WeekView assembles the teacher's attendance page for the week.
func (svc *Service) WeekView(ctx context.Context, db core.DB, courseID, teacherID int, week Week) (WeekView, error) {
	crs, err := svc.roster.Get(ctx, db, courseID)
	if err != nil {
		return WeekView{}, err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return WeekView{}, errors.Wrap(err, "querying students")
	}
	matrix, err := svc.loadWeek(ctx, db, courseID, teacherID, week, students)
	if err != nil {
		return WeekView{}, err
	}

	view := WeekView{
		Course:       crs,
		Start:        core.FormatDate(week.Start),
		Days:         make([]Day, 0, DaysPerWeek),
		Students:     make([]StudentWeek, 0, len(students)),
		PreviousWeek: core.FormatDate(week.Previous().Start),
		NextWeek:     core.FormatDate(week.Next().Start),
	}
	for _, day := range week.Days() {
		view.Days = append(view.Days, Day{Date: core.FormatDate(day), Name: day.Weekday().String()})
	}
	for _, std := range students {
		view.Students = append(view.Students, StudentWeek{Student: std, Attendance: matrix[std.ID]})
	}
	return view, nil
}

// Sheet builds the export grid of the course for the week, whichever teacher
// recorded the cells. When several records exist for a cell the newest wins.
func (svc *Service) Sheet(ctx context.Context, db core.DB, courseID int, week Week) (Sheet, error) {
	crs, err := svc.roster.Get(ctx, db, courseID)
	if err != nil {
		return Sheet{}, err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying students")
	}
	recs, err := svc.repo.QueryCourseRecords(ctx, db, courseID, core.FormatDate(week.Start), core.FormatDate(week.End()))
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying attendance")
	}
	stored := make(map[Key]bool, len(recs))
	for _, rec := range recs {
		stored[Key{StudentID: rec.StudentID, Date: rec.Date}] = rec.Present == 1
	}

	days := week.Days()
	sheet := Sheet{Course: crs, Week: week, Rows: make([]SheetRow, 0, len(students))}
	for _, std := range students {
		row := SheetRow{Student: std, Cells: make([]null.Bool, len(days))}
		for i, day := range days {
			if present, ok := stored[Key{StudentID: std.ID, Date: core.FormatDate(day)}]; ok {
				row.Cells[i] = null.BoolFrom(present)
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

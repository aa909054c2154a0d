package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
)

type (
	// Roster is satisfied by *course.Service.
	Roster interface {
		Get(ctx context.Context, db core.DB, id int) (course.Course, error)
		Students(ctx context.Context, db core.DB, courseID int) ([]course.Student, error)
	}

	// Grades is satisfied by *grade.Service.
	Grades interface {
		ExportRows(ctx context.Context, db core.DB, courseID int) ([]grade.Row, error)
	}

	// Attendance is satisfied by *attendance.Service.
	Attendance interface {
		Sheet(ctx context.Context, db core.DB, courseID int, week attendance.Week) (attendance.Sheet, error)
	}

	Service struct {
		roster     Roster
		grades     Grades
		attendance Attendance
	}
)

func NewService(roster Roster, grades Grades, attendance Attendance) *Service {
	return &Service{roster: roster, grades: grades, attendance: attendance}
}

// RosterDocument lists the course students, one "LastName, FirstName" paragraph each.
func (svc *Service) RosterDocument(ctx context.Context, db core.DB, courseID int) (course.Course, Document, error) {
	crs, err := svc.roster.Get(ctx, db, courseID)
	if err != nil {
		return crs, Document{}, err
	}
	students, err := svc.roster.Students(ctx, db, courseID)
	if err != nil {
		return crs, Document{}, errors.Wrap(err, "querying students")
	}

	doc := Document{
		Title:      fmt.Sprintf("Students of course: %s - Year %d", crs.Name, crs.Year),
		Paragraphs: make([]string, 0, len(students)),
	}
	for _, std := range students {
		doc.Paragraphs = append(doc.Paragraphs, std.DisplayName())
	}
	return crs, doc, nil
}

// GradesDocument tabulates every course student with their current grade, blank if none.
func (svc *Service) GradesDocument(ctx context.Context, db core.DB, courseID int) (course.Course, Document, error) {
	crs, err := svc.roster.Get(ctx, db, courseID)
	if err != nil {
		return crs, Document{}, err
	}
	rows, err := svc.grades.ExportRows(ctx, db, courseID)
	if err != nil {
		return crs, Document{}, errors.Wrap(err, "querying grade rows")
	}

	tbl := &Table{Header: []string{"Student", "Grade"}, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		tbl.Rows = append(tbl.Rows, []string{row.DisplayName, row.GradeText()})
	}
	return crs, Document{
		Title: fmt.Sprintf("Grades for course: %s - Year %d", crs.Name, crs.Year),
		Table: tbl,
	}, nil
}

// AttendanceDocument tabulates the week with P, A or SR cells.
func (svc *Service) AttendanceDocument(ctx context.Context, db core.DB, courseID int, week attendance.Week) (course.Course, Document, error) {
	sheet, err := svc.attendance.Sheet(ctx, db, courseID, week)
	if err != nil {
		return sheet.Course, Document{}, err
	}

	days := week.Days()
	header := make([]string, 0, len(days)+1)
	header = append(header, "Student")
	for _, day := range days {
		header = append(header, fmt.Sprintf("%s\n%s", day.Weekday(), day.Format("02/01")))
	}
	tbl := &Table{Header: header, Rows: make([][]string, 0, len(sheet.Rows))}
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.Student.DisplayName())
		for _, cell := range row.Cells {
			cells = append(cells, attendance.CellSymbol(cell))
		}
		tbl.Rows = append(tbl.Rows, cells)
	}

	crs := sheet.Course
	return crs, Document{
		Title: fmt.Sprintf("Attendance for course: %s - Year %d", crs.Name, crs.Year),
		Paragraphs: []string{
			fmt.Sprintf("Week: %s - %s", week.Start.Format("02/01/2006"), week.End().Format("02/01/2006")),
		},
		Table: tbl,
	}, nil
}

func (svc *Service) Roster(ctx context.Context, db core.DB, courseID int, rdr Renderer) (Artifact, error) {
	crs, doc, err := svc.RosterDocument(ctx, db, courseID)
	if err != nil {
		return Artifact{}, err
	}
	return render(rdr, doc, filename(KindRoster, crs.Name, "", rdr.Extension()))
}

func (svc *Service) Grades(ctx context.Context, db core.DB, courseID int, rdr Renderer) (Artifact, error) {
	crs, doc, err := svc.GradesDocument(ctx, db, courseID)
	if err != nil {
		return Artifact{}, err
	}
	return render(rdr, doc, filename(KindGrades, crs.Name, "", rdr.Extension()))
}

func (svc *Service) Attendance(ctx context.Context, db core.DB, courseID int, week attendance.Week, rdr Renderer) (Artifact, error) {
	crs, doc, err := svc.AttendanceDocument(ctx, db, courseID, week)
	if err != nil {
		return Artifact{}, err
	}
	return render(rdr, doc, filename(KindAttendance, crs.Name, week.Start.Format("02-01-2006"), rdr.Extension()))
}

func render(rdr Renderer, doc Document, name string) (Artifact, error) {
	var buf bytes.Buffer
	if err := rdr.Render(&buf, doc); err != nil {
		return Artifact{}, errors.Wrapf(err, "rendering %s", name)
	}
	return Artifact{Filename: name, ContentType: rdr.ContentType(), Content: &buf}, nil
}

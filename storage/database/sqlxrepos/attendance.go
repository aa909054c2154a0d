package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
)

const attendanceColumns = "id, student_id, teacher_id, course_id, date, present"

type AttendanceRepository struct{}

var _ attendance.Repository = (*AttendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{}
}

func (repo AttendanceRepository) FindRecord(
	ctx context.Context,
	exec core.DBExecutor,
	studentID, teacherID, courseID int,
	date string,
) (attendance.Record, error) {
	var rec attendance.Record
	err := exec.GetContext(ctx, &rec,
		exec.Rebind(`SELECT `+attendanceColumns+` FROM attendance
		WHERE student_id = ? AND teacher_id = ? AND course_id = ? AND date = ?
		ORDER BY id LIMIT 1`),
		studentID, teacherID, courseID, date,
	)
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrRecordNotFound, "finding attendance record")
	}
	return rec, nil
}

func (repo AttendanceRepository) CreateRecord(ctx context.Context, exec core.DBExecutor, rec attendance.Record) (attendance.Record, error) {
	id, err := insertReturningID(ctx, exec,
		`INSERT INTO attendance (student_id, teacher_id, course_id, date, present)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		rec.StudentID, rec.TeacherID, rec.CourseID, rec.Date, rec.Present,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	rec.ID = id
	return rec, nil
}

func (repo AttendanceRepository) UpdatePresence(ctx context.Context, exec core.DBExecutor, id, present int) error {
	err := execRebind(ctx, exec, "UPDATE attendance SET present = ? WHERE id = ?", present, id)
	return errors.Wrap(err, "updating attendance record")
}

func (repo AttendanceRepository) QueryTeacherRecords(
	ctx context.Context,
	exec core.DBExecutor,
	courseID, teacherID int,
	from, to string,
) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	err := exec.SelectContext(ctx, &recs,
		exec.Rebind(`SELECT `+attendanceColumns+` FROM attendance
		WHERE course_id = ? AND teacher_id = ? AND date >= ? AND date <= ?
		ORDER BY id`),
		courseID, teacherID, from, to,
	)
	return recs, errors.Wrap(err, "querying teacher attendance")
}

func (repo AttendanceRepository) QueryCourseRecords(ctx context.Context, exec core.DBExecutor, courseID int, from, to string) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	err := exec.SelectContext(ctx, &recs,
		exec.Rebind(`SELECT `+attendanceColumns+` FROM attendance
		WHERE course_id = ? AND date >= ? AND date <= ?
		ORDER BY id`),
		courseID, from, to,
	)
	return recs, errors.Wrap(err, "querying course attendance")
}

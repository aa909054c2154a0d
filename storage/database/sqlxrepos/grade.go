package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/grade"
)

const gradeColumns = "id, student_id, teacher_id, course_id, value, date"

type GradeRepository struct{}

var _ grade.Repository = (*GradeRepository)(nil) // interface compliance check

func NewGradeRepository() *GradeRepository {
	return &GradeRepository{}
}

func (repo GradeRepository) CreateEntry(ctx context.Context, exec core.DBExecutor, ent grade.Entry) (grade.Entry, error) {
	id, err := insertReturningID(ctx, exec,
		`INSERT INTO grades (student_id, teacher_id, course_id, value, date)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		ent.StudentID, ent.TeacherID, ent.CourseID, ent.Value, ent.Date,
	)
	if err != nil {
		return grade.Entry{}, errors.Wrap(err, "inserting grade")
	}
	ent.ID = id
	return ent, nil
}

func (repo GradeRepository) LatestEntry(ctx context.Context, exec core.DBExecutor, studentID, courseID int) (grade.Entry, error) {
	var ent grade.Entry
	err := exec.GetContext(ctx, &ent,
		exec.Rebind(`SELECT `+gradeColumns+` FROM grades
		WHERE student_id = ? AND course_id = ?
		ORDER BY date DESC, id DESC LIMIT 1`),
		studentID, courseID,
	)
	if err != nil {
		return grade.Entry{}, trapNoRowsErr(err, grade.ErrEntryNotFound, "finding latest grade")
	}
	return ent, nil
}

func (repo GradeRepository) QueryCourseEntries(ctx context.Context, exec core.DBExecutor, courseID int) ([]grade.Entry, error) {
	ents := make([]grade.Entry, 0)
	err := exec.SelectContext(ctx, &ents,
		exec.Rebind("SELECT "+gradeColumns+" FROM grades WHERE course_id = ? ORDER BY date, id"),
		courseID,
	)
	return ents, errors.Wrap(err, "querying course grades")
}

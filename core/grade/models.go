package grade

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core/course"
)

// gradeFieldPrefix prefixes the form field of each student's grade: grade_<studentID>.
const gradeFieldPrefix = "grade_"

// Entry is one recorded grade. Entries are only ever appended.
type Entry struct {
	ID        int     `db:"id"`
	StudentID int     `db:"student_id"`
	TeacherID int     `db:"teacher_id"`
	CourseID  int     `db:"course_id"`
	Value     float64 `db:"value"`
	Date      string  `db:"date"`
}

// SubmitResult counts what a submission did; Skipped entries could not be parsed.
type SubmitResult struct {
	Recorded int `json:"recorded"`
	Skipped  int `json:"skipped"`
}

type (
	StudentGrade struct {
		course.Student
		Grade null.Float64 `json:"grade"`
	}

	CourseGrades struct {
		Course   course.Course  `json:"course"`
		Students []StudentGrade `json:"students"`
	}
)

// Row is one line of the grade export.
type Row struct {
	DisplayName string
	Grade       null.Float64
}

// GradeText renders the grade, blank when the student has none.
func (r Row) GradeText() string {
	return FormatGrade(r.Grade)
}

func FormatGrade(g null.Float64) string {
	if !g.Valid {
		return ""
	}
	return strconv.FormatFloat(g.Float64, 'f', -1, 64)
}

// GradeField returns the form field name of the student's grade.
func GradeField(studentID int) string {
	return gradeFieldPrefix + strconv.Itoa(studentID)
}

// ParseEntries collects the raw grade texts of a submitted form by student id.
func ParseEntries(form url.Values) map[int]string {
	entries := make(map[int]string)
	for field, vals := range form {
		if !strings.HasPrefix(field, gradeFieldPrefix) || len(vals) == 0 {
			continue
		}
		studentID, err := strconv.Atoi(strings.TrimPrefix(field, gradeFieldPrefix))
		if err != nil {
			continue
		}
		entries[studentID] = vals[0]
	}
	return entries
}

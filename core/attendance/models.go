package attendance

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
)

// Export symbols.
const (
	SymbolPresent  = "P"
	SymbolAbsent   = "A"
	SymbolNoRecord = "SR"
)

// markFieldPrefix prefixes the form field of each (student, date) cell: attendance_<studentID>_<YYYY-MM-DD>.
const markFieldPrefix = "attendance_"

// Record is one stored presence flag; Date is ISO-8601 and Present is 0 or 1.
type Record struct {
	ID        int    `db:"id"`
	StudentID int    `db:"student_id"`
	TeacherID int    `db:"teacher_id"`
	CourseID  int    `db:"course_id"`
	Date      string `db:"date"`
	Present   int    `db:"present"`
}

// Key addresses one cell of the week grid.
type Key struct {
	StudentID int
	Date      string
}

// Marks holds the submitted cells; a cell missing from Marks means not present.
type Marks map[Key]bool

// MarkField returns the form field name of the cell.
func MarkField(studentID int, date time.Time) string {
	return fmt.Sprintf("%s%d_%s", markFieldPrefix, studentID, core.FormatDate(date))
}

// ParseMarks collects checked cells from a submitted form. Malformed fields are ignored.
func ParseMarks(form url.Values) Marks {
	marks := make(Marks)
	for field, vals := range form {
		if !strings.HasPrefix(field, markFieldPrefix) || len(vals) == 0 {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(field, markFieldPrefix), "_", 2)
		if len(parts) != 2 {
			continue
		}
		studentID, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		date, err := core.ParseDate(parts[1])
		if err != nil {
			continue
		}
		marks[Key{StudentID: studentID, Date: core.FormatDate(date)}] = isChecked(vals[0])
	}
	return marks
}

// isChecked treats any non-empty value as a checked box, except explicit negatives.
func isChecked(val string) bool {
	switch strings.ToLower(core.CleanString(val)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// Matrix maps student id to date to presence flag (0 or 1).
type Matrix map[int]map[string]int

type (
	Day struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}

	StudentWeek struct {
		course.Student
		Attendance map[string]int `json:"attendance"`
	}

	// WeekView is the on-screen week: a missing record shows as 0 like an explicit absence.
	WeekView struct {
		Course       course.Course `json:"course"`
		Start        string        `json:"start"`
		Days         []Day         `json:"days"`
		Students     []StudentWeek `json:"students"`
		PreviousWeek string        `json:"previous_week"`
		NextWeek     string        `json:"next_week"`
	}
)

type (
	SheetRow struct {
		Student course.Student
		// Cells has one entry per week day; an invalid value means no record exists.
		Cells []null.Bool
	}

	// Sheet is the export grid. Unlike WeekView it tells an absence from a missing record.
	Sheet struct {
		Course course.Course
		Week   Week
		Rows   []SheetRow
	}
)

// CellSymbol renders an export cell as P, A or SR.
func CellSymbol(cell null.Bool) string {
	switch {
	case !cell.Valid:
		return SymbolNoRecord
	case cell.Bool:
		return SymbolPresent
	default:
		return SymbolAbsent
	}
}

func boolToFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

package attendance

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

// DaysPerWeek is the number of school days, Monday to Friday.
const DaysPerWeek = 5

var errInvalidWeekStart = errors.New("week start must be a date formatted as YYYY-MM-DD")

// Week is the Monday..Friday window starting at Start.
type Week struct {
	Start time.Time
}

// ResolveWeek uses requestedStart as-is when given (it is not checked to be a Monday),
// otherwise the Monday of the calendar week containing today.
func ResolveWeek(requestedStart *time.Time, today time.Time) Week {
	if requestedStart != nil {
		return Week{Start: core.TruncateDate(*requestedStart)}
	}
	today = core.TruncateDate(today)
	return Week{Start: today.AddDate(0, 0, -weekdayOffset(today))}
}

// CurrentWeek is the week containing core.Today().
func CurrentWeek() Week {
	return ResolveWeek(nil, core.Today())
}

// weekdayOffset counts days since Monday: Monday=0 ... Sunday=6.
func weekdayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseWeekStart parses an optional YYYY-MM-DD week start; an empty string yields nil.
func ParseWeekStart(s string) (*time.Time, error) {
	s = core.CleanString(s)
	if s == "" {
		return nil, nil
	}
	start, err := core.ParseDate(s)
	if err != nil {
		return nil, core.NewValidationError(errInvalidWeekStart, core.FieldError{Field: "start", Error: errInvalidWeekStart.Error()})
	}
	return &start, nil
}

// Days returns the five dates start+0..4.
func (w Week) Days() []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek-1)
}

func (w Week) Previous() Week {
	return Week{Start: w.Start.AddDate(0, 0, -7)}
}

func (w Week) Next() Week {
	return Week{Start: w.Start.AddDate(0, 0, 7)}
}

// Package period turns a reporting period selector and an anchor date into
// inclusive timestamp bounds.
package period

import (
	"fmt"
	"strings"
	"time"
)

type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
)

// DefaultPeriod is used when no selector is given or the selector is not
// one of the known periods.
const DefaultPeriod = Month

// DateLayout is the wire format of anchor dates.
const DateLayout = "2006-01-02"

// endOfDayNanos makes the last instant of a day 23:59:59.999999.
const endOfDayNanos = 999_999_000

type Bounds struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the closed interval [Start, End].
func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// spanFunc returns the first and last calendar day of the period around day.
type spanFunc func(day time.Time) (first, last time.Time)

var spans = map[Period]spanFunc{
	Day: func(day time.Time) (time.Time, time.Time) {
		return day, day
	},
	Week: func(day time.Time) (time.Time, time.Time) {
		sinceMonday := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -sinceMonday)
		return monday, monday.AddDate(0, 0, 6)
	},
	Month: func(day time.Time) (time.Time, time.Time) {
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return first, first.AddDate(0, 1, -1)
	},
}

// Parse matches s case-insensitively against the known periods and falls
// back to DefaultPeriod. It never fails.
func Parse(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := spans[p]; ok {
		return p
	}
	return DefaultPeriod
}

func (p Period) String() string {
	return string(p)
}

// Resolve computes the bounds of period p around anchor, in anchor's
// location. The time of day of anchor is ignored.
func Resolve(anchor time.Time, p Period) Bounds {
	span, ok := spans[p]
	if !ok {
		span = spans[DefaultPeriod]
	}
	first, last := span(midnight(anchor))
	return Bounds{
		Start: midnight(first),
		End:   time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, endOfDayNanos, last.Location()),
	}
}

// ParseDate parses an anchor date (YYYY-MM-DD) in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

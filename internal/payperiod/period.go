// Package payperiod derives the two-week pay period windows.
//
// A period starts at midnight on its start date. Week one ends six days
// later at 23:59, week two starts seven days after the start and ends at
// 23:59 on day thirteen. Membership in the whole period is inclusive at both
// ends, while the first-week test is strict at both ends: a message stamped
// exactly at the start of the period falls into week two.
package payperiod

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Layout is the start date format (MM/DD/YY). Parsing also accepts
// single-digit months and days.
const Layout = "01/02/06"

const parseLayout = "1/2/06"

// Length is the number of days in a period.
const Length = 14

// DateFormatError reports a start date that is not a MM/DD/YY calendar date.
type DateFormatError struct {
	Input string
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid period start %q: expected mm/dd/yy", e.Input)
}

func (e *DateFormatError) Unwrap() error { return e.Err }

// Period holds the boundaries of one pay period.
type Period struct {
	StartOfWeek1 time.Time `json:"start_of_week1"`
	EndOfWeek1   time.Time `json:"end_of_week1"`
	StartOfWeek2 time.Time `json:"start_of_week2"`
	EndOfWeek2   time.Time `json:"end_of_week2"`
}

// Parse reads a MM/DD/YY start date in UTC.
func Parse(start string) (Period, error) {
	return ParseInLocation(start, time.UTC)
}

// ParseInLocation reads a MM/DD/YY start date at midnight in loc.
func ParseInLocation(start string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(parseLayout, start, loc)
	if err != nil {
		return Period{}, &DateFormatError{Input: start, Err: errors.WithStack(err)}
	}
	return New(t), nil
}

// New builds the period starting at start. Boundaries are wall-clock times
// in start's zone, so a daylight saving change inside the period does not
// move them.
func New(start time.Time) Period {
	day := func(offset, hh, mm int) time.Time {
		return time.Date(start.Year(), start.Month(), start.Day()+offset, hh, mm, 0, 0, start.Location())
	}
	return Period{
		StartOfWeek1: start,
		EndOfWeek1:   day(6, 23, 59),
		StartOfWeek2: day(7, 0, 0),
		EndOfWeek2:   day(13, 23, 59),
	}
}

// WithinPeriod reports whether t lies in [StartOfWeek1, EndOfWeek2].
func (p Period) WithinPeriod(t time.Time) bool {
	return !t.Before(p.StartOfWeek1) && !t.After(p.EndOfWeek2)
}

// WithinFirstWeek reports whether t lies strictly between StartOfWeek1 and
// EndOfWeek1.
func (p Period) WithinFirstWeek(t time.Time) bool {
	return t.After(p.StartOfWeek1) && t.Before(p.EndOfWeek1)
}

// Week returns 1 or 2 for a time inside the period and 0 otherwise.
func (p Period) Week(t time.Time) int {
	switch {
	case !p.WithinPeriod(t):
		return 0
	case p.WithinFirstWeek(t):
		return 1
	default:
		return 2
	}
}

// Previous returns the period that ends just before p.
func (p Period) Previous() Period {
	return New(p.StartOfWeek1.AddDate(0, 0, -Length))
}

// Next returns the period that starts right after p.
func (p Period) Next() Period {
	return New(p.StartOfWeek1.AddDate(0, 0, Length))
}

// Start formats the period start as MM/DD/YY.
func (p Period) Start() string {
	return p.StartOfWeek1.Format(Layout)
}

// Current returns the period of the fourteen-day cycle anchored at anchor
// that contains now. Periods before the anchor are stepped back in whole
// cycles.
func Current(anchor Period, now time.Time) Period {
	start := anchor.StartOfWeek1
	days := int(math.Floor(now.Sub(start).Hours() / 24))
	cycles := days / Length
	if days%Length < 0 {
		cycles--
	}
	p := New(start.AddDate(0, 0, cycles*Length))
	// Day arithmetic can drift across DST changes; settle on the right cycle.
	for now.Before(p.StartOfWeek1) {
		p = p.Previous()
	}
	for !now.Before(p.Next().StartOfWeek1) {
		p = p.Next()
	}
	return p
}

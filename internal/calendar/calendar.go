package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned by Validate for working-week lengths other than 5, 6 or 7.
var ErrInvalidPolicy = errors.New("invalid working calendar policy")

// Policy is the number of working days in a week.
//
// Out-of-range values are tolerated by every arithmetic method and behave like
// SevenDay. Callers that want to reject them call Validate.
type Policy int

const (
	FiveDay  Policy = 5 // Saturday and Sunday off
	SixDay   Policy = 6 // Sunday off
	SevenDay Policy = 7 // every day works
)

// DateLayout is the textual date format used across project files and reports.
const DateLayout = "2006-01-02"

// Validate reports whether p is one of the supported working-week lengths.
func (p Policy) Validate() error {
	switch p {
	case FiveDay, SixDay, SevenDay:
		return nil
	}
	return fmt.Errorf("%w: %d working days per week (want 5, 6 or 7)", ErrInvalidPolicy, int(p))
}

func (p Policy) String() string {
	return fmt.Sprintf("%d-day week", int(p))
}

// IsWorkingDay reports whether d falls on a working day under p.
func (p Policy) IsWorkingDay(d time.Time) bool {
	wd := d.Weekday()
	switch p {
	case SixDay:
		return wd != time.Sunday
	case FiveDay:
		return wd != time.Saturday && wd != time.Sunday
	default:
		return true
	}
}

// AddWorkingDays moves |days| working days away from start, forwards for a
// positive count and backwards for a negative one. Zero returns start as-is,
// even when start itself is not a working day.
//
// The walk is one calendar day at a time.
func (p Policy) AddWorkingDays(start time.Time, days int) time.Time {
	if days == 0 {
		return start
	}

	step := 1
	remaining := days
	if days < 0 {
		step = -1
		remaining = -days
	}

	cur := start
	for remaining > 0 {
		cur = cur.AddDate(0, 0, step)
		if p.IsWorkingDay(cur) {
			remaining--
		}
	}
	return cur
}

// CountWorkingDays counts the working days from start to end, inclusive of both
// ends. When start is after end the result is the negated count of the swapped
// range, so counting a date against itself gives 1 on a working day and 0 otherwise.
func (p Policy) CountWorkingDays(start, end time.Time) int {
	if start.After(end) {
		return -p.CountWorkingDays(end, start)
	}

	count := 0
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if p.IsWorkingDay(cur) {
			count++
		}
	}
	return count
}

// WorkingDaysBetween returns the signed number of working days landed on when
// walking from start to end, not counting start itself. For a working-day start
// it inverts AddWorkingDays: WorkingDaysBetween(d, AddWorkingDays(d, n)) == n.
func (p Policy) WorkingDaysBetween(start, end time.Time) int {
	start, end = Truncate(start), Truncate(end)
	if start.Equal(end) {
		return 0
	}

	step := 1
	if end.Before(start) {
		step = -1
	}

	count := 0
	for cur := start; cur.Before(end) == (step > 0) && !cur.Equal(end); {
		cur = cur.AddDate(0, 0, step)
		if p.IsWorkingDay(cur) {
			count++
		}
	}
	return count * step
}

// NextWorkingDay returns the first working day strictly after d.
func (p Policy) NextWorkingDay(d time.Time) time.Time {
	cur := d.AddDate(0, 0, 1)
	for !p.IsWorkingDay(cur) {
		cur = cur.AddDate(0, 0, 1)
	}
	return cur
}

// PreviousWorkingDay returns the last working day strictly before d.
func (p Policy) PreviousWorkingDay(d time.Time) time.Time {
	cur := d.AddDate(0, 0, -1)
	for !p.IsWorkingDay(cur) {
		cur = cur.AddDate(0, 0, -1)
	}
	return cur
}

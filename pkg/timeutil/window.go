package timeutil

import (
	"fmt"
	"time"
)

// Window is the fixed reporting period of one pipeline run. Start is the
// Monday 00:00 opening the first ISO week, End is the Sunday 00:00 of the
// last ISO week, both in the report location.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthWindow returns the window covering every ISO week that touches the
// calendar month of now. A month opening on a Sunday starts from the
// following Monday, since the Sunday belongs to the previous ISO week.
func MonthWindow(now time.Time) Window {
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	if first.Weekday() == time.Sunday {
		first = first.AddDate(0, 0, 1)
	}
	start := first.AddDate(0, 0, -isoWeekdayOffset(first))

	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, loc)
	end := last.AddDate(0, 0, 6-isoWeekdayOffset(last))

	return Window{Start: start, End: end}
}

// NewWindow builds a window from explicit dates in loc.
func NewWindow(start, end Date, loc *time.Location) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s before start %s", end, start)
	}
	return Window{Start: start.Midnight(loc), End: end.Midnight(loc)}, nil
}

func (w Window) StartDate() Date { return DateOf(w.Start) }
func (w Window) EndDate() Date   { return DateOf(w.End) }

// ContainsInterval reports whether [from, to] lies fully inside the window.
func (w Window) ContainsInterval(from, to time.Time) bool {
	return !from.Before(w.Start) && !to.After(w.End)
}

// Overlaps reports whether [from, to] touches the window at all.
func (w Window) Overlaps(from, to time.Time) bool {
	return !to.Before(w.Start) && !from.After(w.End)
}

// ContainsDate reports whether d falls between the start and end dates inclusive.
func (w Window) ContainsDate(d Date) bool {
	return !d.Before(w.StartDate()) && !d.After(w.EndDate())
}

// Days lists every calendar day of the window, inclusive.
func (w Window) Days() []Date {
	var days []Date
	for d := w.StartDate(); !d.After(w.EndDate()); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Weeks returns the first and last ISO week of the window.
func (w Window) Weeks() (ISOWeek, ISOWeek) {
	return w.StartDate().ISOWeek(), w.EndDate().ISOWeek()
}

// ContainsWeek reports whether the ISO week lies between the window's first
// and last ISO week.
func (w Window) ContainsWeek(week ISOWeek) bool {
	first, last := w.Weeks()
	return week.Compare(first) >= 0 && week.Compare(last) <= 0
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.StartDate(), w.EndDate())
}

// isoWeekdayOffset is the number of days since the ISO Monday.
func isoWeekdayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// AbsencePolicy holds the business constants that bound per-day absence
// hours. Several historical pipeline variants disagreed on these values, so
// they are configuration rather than code.
type AbsencePolicy struct {
	WorkdayStartHour  int     `json:"workdayStartHour"`
	WorkdayEndHour    int     `json:"workdayEndHour"`
	EveningCutoffHour int     `json:"eveningCutoffHour"`
	MaxDailyHours     float64 `json:"maxDailyHours"`
}

// DefaultAbsencePolicy is the canonical 07:00-19:00 workday, 20:00 evening
// cutoff and 8h daily cap.
var DefaultAbsencePolicy = AbsencePolicy{
	WorkdayStartHour:  7,
	WorkdayEndHour:    19,
	EveningCutoffHour: 20,
	MaxDailyHours:     8,
}

// Validate rejects policies that cannot produce a sane workday.
func (p AbsencePolicy) Validate() error {
	switch {
	case p.WorkdayStartHour < 0 || p.WorkdayEndHour > 24 || p.WorkdayStartHour >= p.WorkdayEndHour:
		return fmt.Errorf("absence policy: workday %02d:00-%02d:00 is empty", p.WorkdayStartHour, p.WorkdayEndHour)
	case p.EveningCutoffHour < 0 || p.EveningCutoffHour > 24:
		return fmt.Errorf("absence policy: evening cutoff %d out of range", p.EveningCutoffHour)
	case p.MaxDailyHours <= 0 || p.MaxDailyHours > 24:
		return fmt.Errorf("absence policy: daily cap %.2f out of range", p.MaxDailyHours)
	}
	return nil
}

// AbsenceDay is the blocked-time contribution of one employee on one day.
type AbsenceDay struct {
	Employee       EmployeeKey   `json:"employee"`
	Date           timeutil.Date `json:"date"`
	ResourceName   string        `json:"resourceName"`
	PersonalNumber string        `json:"personalNumber"`
	Type           string        `json:"type"`
	Hours          float64       `json:"hours"`
	// Intervals place the counted hours on the clock for slot overlap.
	Intervals []Interval `json:"intervals"`
}

// AbsenceStats counts what absence expansion discarded.
type AbsenceStats struct {
	Input         int `json:"input"`
	OutsideWindow int `json:"outsideWindow"`
	Inverted      int `json:"inverted"`
	Days          int `json:"days"`
}

// ExpandAbsences splits each absence into per-day contributions inside the
// window and aggregates them to one record per (employee, day).
//
// For an absence spanning D0..Dn:
//   - D0: min(workday end - start, cap) when the absence starts before the
//     evening cutoff, otherwise 0
//   - days strictly between: a full workday, capped
//   - Dn: end - midnight, capped
//   - D0 == Dn: end - start, capped, also subject to the evening cutoff
//
// Aggregated day totals are capped again. An absence ending before it starts
// yields a zero-hour record on its start day.
func ExpandAbsences(absences []schema.AbsenceRecord, policy AbsencePolicy, window timeutil.Window) ([]AbsenceDay, AbsenceStats) {
	stats := AbsenceStats{Input: len(absences)}
	index := make(map[EmployeeDay]int)
	var days []AbsenceDay

	add := func(a schema.AbsenceRecord, date timeutil.Date, hours float64, iv Interval) {
		if !window.ContainsDate(date) {
			return
		}
		k := EmployeeDay{Employee: EmployeeKey{Shop: a.Shop, ResourceID: a.ResourceID}, Date: date}
		i, ok := index[k]
		if !ok {
			i = len(days)
			index[k] = i
			days = append(days, AbsenceDay{Employee: k.Employee, Date: date})
		}
		d := &days[i]
		d.Hours = math.Min(d.Hours+hours, policy.MaxDailyHours)
		if iv.End.After(iv.Start) {
			d.Intervals = append(d.Intervals, iv)
		}
		fillString(&d.ResourceName, a.ResourceName)
		fillString(&d.PersonalNumber, a.PersonalNumber)
		fillString(&d.Type, a.Type)
	}

	for _, a := range absences {
		lo, hi := a.Start, a.End
		if hi.Before(lo) {
			hi = lo
		}
		if !window.Overlaps(lo, hi) {
			stats.OutsideWindow++
			continue
		}
		first, last := timeutil.DateOf(a.Start), timeutil.DateOf(a.End)
		if a.End.Before(a.Start) {
			stats.Inverted++
			add(a, first, 0, Interval{})
			continue
		}

		// only the days inside the window are walked; long absences may
		// carry far-future end dates
		from, to := first, last
		if from.Before(window.StartDate()) {
			from = window.StartDate()
		}
		if to.After(window.EndDate()) {
			to = window.EndDate()
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			hours, iv := policy.dayContribution(a.Start, a.End, first, last, d)
			add(a, d, hours, iv)
		}
	}

	sort.SliceStable(days, func(i, j int) bool {
		a, b := days[i], days[j]
		if a.Employee != b.Employee {
			if a.Employee.Shop != b.Employee.Shop {
				return a.Employee.Shop < b.Employee.Shop
			}
			return a.Employee.ResourceID < b.Employee.ResourceID
		}
		return a.Date.Before(b.Date)
	})
	stats.Days = len(days)
	return days, stats
}

// dayContribution computes the capped hours an absence contributes to day d
// and where on the clock they fall.
func (p AbsencePolicy) dayContribution(start, end time.Time, first, last, d timeutil.Date) (float64, Interval) {
	loc := start.Location()
	capped := func(h float64) float64 {
		return math.Max(0, math.Min(h, p.MaxDailyHours))
	}
	span := func(from time.Time, h float64) Interval {
		return Interval{Start: from, End: from.Add(time.Duration(h * float64(time.Hour)))}
	}

	switch {
	case d == first && d == last:
		if start.Hour() >= p.EveningCutoffHour {
			return 0, Interval{}
		}
		h := capped(end.Sub(start).Hours())
		return h, span(start, h)
	case d == first:
		if start.Hour() >= p.EveningCutoffHour {
			return 0, Interval{}
		}
		h := capped(d.At(p.WorkdayEndHour, loc).Sub(start).Hours())
		return h, span(start, h)
	case d == last:
		h := capped(end.Sub(d.Midnight(loc)).Hours())
		return h, Interval{Start: end.Add(-time.Duration(h * float64(time.Hour))), End: end}
	default:
		h := capped(float64(p.WorkdayEndHour - p.WorkdayStartHour))
		return h, span(d.At(p.WorkdayStartHour, loc), h)
	}
}

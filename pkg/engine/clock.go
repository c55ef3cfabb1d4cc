package engine

import (
	"sort"
	"strconv"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// NotCompleted marks a clock day with no resolvable in/out pair.
const NotCompleted = "NC"

// PunchKind is the parity-derived role of a punch within its day.
type PunchKind string

const (
	ClockIn  PunchKind = "Clock In"
	ClockOut PunchKind = "Clock Out"
)

// ClockEntry is one Clock In punch and what it paired with.
type ClockEntry struct {
	HRID     string        `json:"hrId"`
	Date     timeutil.Date `json:"date"`
	In       time.Time     `json:"in"`
	Out      time.Time     `json:"out"`
	Hours    float64       `json:"hours"`
	NC       bool          `json:"nc"`
	ShopName string        `json:"shopName"`
}

// ClockDay is the clocked total of one employee on one day. NC days count as
// zero hours in any aggregate.
type ClockDay struct {
	HRID     string        `json:"hrId"`
	Date     timeutil.Date `json:"date"`
	Hours    float64       `json:"hours"`
	NC       bool          `json:"nc"`
	Punches  int           `json:"punches"`
	ShopName string        `json:"shopName"`
}

// Display renders the worked hours, or NC for unresolved days.
func (d ClockDay) Display() string {
	if d.NC {
		return NotCompleted
	}
	return strconv.FormatFloat(d.Hours, 'f', 2, 64)
}

// PunchStats counts punch anomalies.
type PunchStats struct {
	Punches int `json:"punches"`
	// DuplicatePunches are identical (HR id, timestamp) rows. They are
	// reported but still take part in pairing.
	DuplicatePunches int `json:"duplicatePunches"`
	Entries          int `json:"entries"`
	NCEntries        int `json:"ncEntries"`
	NCDays           int `json:"ncDays"`
}

// PairPunches labels punches and pairs them:
//  1. punches are sorted per employee by time
//  2. within each (employee, day) they alternate Clock In, Clock Out
//  3. each Clock In pairs with the employee's next punch; hours count only
//     when that punch is a Clock Out on the same day, otherwise the entry is NC
//
// Parity assumes clean alternation: a double-tapped Clock In shifts every
// later label of the day.
func PairPunches(punches []schema.ClockPunch) ([]ClockEntry, PunchStats) {
	stats := PunchStats{Punches: len(punches)}
	sorted := make([]schema.ClockPunch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].HRID != sorted[j].HRID {
			return sorted[i].HRID < sorted[j].HRID
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	kinds := make([]PunchKind, len(sorted))
	perDay := make(map[PersonDay]int)
	for i, p := range sorted {
		if i > 0 && sorted[i-1].HRID == p.HRID && sorted[i-1].Timestamp.Equal(p.Timestamp) {
			stats.DuplicatePunches++
		}
		k := PersonDay{PersonalNumber: p.HRID, Date: timeutil.DateOf(p.Timestamp)}
		if perDay[k]%2 == 0 {
			kinds[i] = ClockIn
		} else {
			kinds[i] = ClockOut
		}
		perDay[k]++
	}

	var entries []ClockEntry
	for i, p := range sorted {
		if kinds[i] != ClockIn {
			continue
		}
		e := ClockEntry{HRID: p.HRID, Date: timeutil.DateOf(p.Timestamp), In: p.Timestamp, ShopName: p.ShopName, NC: true}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if next.HRID == p.HRID && kinds[i+1] == ClockOut && timeutil.DateOf(next.Timestamp) == e.Date {
				e.Out = next.Timestamp
				e.Hours = next.Timestamp.Sub(p.Timestamp).Hours()
				e.NC = false
			}
		}
		if e.NC {
			stats.NCEntries++
		}
		entries = append(entries, e)
	}
	stats.Entries = len(entries)
	return entries, stats
}

// DailyClock sums entries per (employee, day). A day with at least one valid
// pair is resolved and its NC entries are ignored; a day with none is NC.
func DailyClock(entries []ClockEntry, punchesPerDay map[PersonDay]int) []ClockDay {
	index := make(map[PersonDay]int)
	var days []ClockDay
	valid := make(map[PersonDay]bool)
	for _, e := range entries {
		k := PersonDay{PersonalNumber: e.HRID, Date: e.Date}
		i, ok := index[k]
		if !ok {
			i = len(days)
			index[k] = i
			days = append(days, ClockDay{HRID: e.HRID, Date: e.Date, Punches: punchesPerDay[k]})
		}
		d := &days[i]
		fillString(&d.ShopName, e.ShopName)
		if !e.NC {
			valid[k] = true
			d.Hours += e.Hours
		}
	}
	for i := range days {
		days[i].NC = !valid[PersonDay{PersonalNumber: days[i].HRID, Date: days[i].Date}]
	}
	return days
}

// ClockInput is what the clock reconciliation needs.
type ClockInput struct {
	Window    timeutil.Window
	Punches   []schema.ClockPunch
	Employees []EmployeeRow
	Identity  *IdentityIndex
	Regions   []schema.RegionMapping
}

// ClockRow compares the scheduled, absence-adjusted hours of one employee on
// one day with the hours clocked on the physical time clock.
type ClockRow struct {
	Key          PersonDay        `json:"key"`
	ResourceName string           `json:"resourceName"`
	Shop         string           `json:"shop"`
	ShopName     string           `json:"shopName"`
	Region       string           `json:"region"`
	Area         string           `json:"area"`
	Weekday      string           `json:"weekday"`
	Week         timeutil.ISOWeek `json:"week"`

	HasClock      bool    `json:"hasClock"`
	HasScheduling bool    `json:"hasScheduling"`
	ClockHours    float64 `json:"clockHours"`
	ClockNC       bool    `json:"clockNc"`

	ShiftDurationHours         float64 `json:"shiftDurationHours"`
	AbsenceDurationHours       float64 `json:"absenceDurationHours"`
	ShiftDurationHoursAdjusted float64 `json:"shiftDurationHoursAdjusted"`

	Delta  float64     `json:"delta"`
	Status DeltaStatus `json:"status"`
}

// HoursWorked renders the clocked hours the way the report shows them.
func (r ClockRow) HoursWorked() string {
	if !r.HasClock {
		return ""
	}
	return ClockDay{Hours: r.ClockHours, NC: r.ClockNC}.Display()
}

// ClockStats counts the outcome of the clock reconciliation.
type ClockStats struct {
	Punches        PunchStats `json:"punches"`
	Matched        int        `json:"matched"`
	ClockOnly      int        `json:"clockOnly"`
	SchedulingOnly int        `json:"schedulingOnly"`
	Unmapped       int        `json:"unmapped"`
	NotLive        int        `json:"notLive"`
}

// ClockResult is the output of ReconcileClock.
type ClockResult struct {
	Rows  []ClockRow `json:"rows"`
	Days  []ClockDay `json:"days"`
	Stats ClockStats `json:"stats"`
}

// ReconcileClock pairs punches into daily clocked hours and full-outer-joins
// them with scheduled hours on (personal number, day). The clock HR id is
// the scheduling personal number. Each row is placed in the shop of the
// employee's active cross-mapping; rows without one, or in shops not live on
// the scheduling system, are dropped. Delta is adjusted scheduled hours minus
// clocked hours, NC days counting as zero.
func ReconcileClock(in ClockInput) ClockResult {
	idx := in.Identity
	if idx == nil {
		idx = BuildIdentityIndex(nil, in.Employees)
	}
	regions := make(map[string]schema.RegionMapping, len(in.Regions))
	for _, r := range in.Regions {
		regions[r.Code] = r
	}

	entries, punchStats := PairPunches(in.Punches)
	punchesPerDay := make(map[PersonDay]int)
	for _, p := range in.Punches {
		punchesPerDay[PersonDay{PersonalNumber: p.HRID, Date: timeutil.DateOf(p.Timestamp)}]++
	}
	days := DailyClock(entries, punchesPerDay)
	stats := ClockStats{}

	rows := make(map[PersonDay]*ClockRow)
	row := func(k PersonDay) *ClockRow {
		r, ok := rows[k]
		if !ok {
			r = &ClockRow{Key: k}
			rows[k] = r
		}
		return r
	}

	var inWindow []ClockDay
	for _, d := range days {
		if !in.Window.ContainsDate(d.Date) {
			continue
		}
		inWindow = append(inWindow, d)
		if d.NC {
			punchStats.NCDays++
		}
		r := row(PersonDay{PersonalNumber: d.HRID, Date: d.Date})
		r.HasClock = true
		r.ClockHours = d.Hours
		r.ClockNC = d.NC
	}
	stats.Punches = punchStats

	for _, e := range in.Employees {
		if e.PersonalNumber == "" {
			continue
		}
		r := row(PersonDay{PersonalNumber: e.PersonalNumber, Date: e.Date})
		r.HasScheduling = true
		r.ShiftDurationHours += e.ShiftDurationHours
		r.AbsenceDurationHours += e.AbsenceDurationHours
		r.ShiftDurationHoursAdjusted += e.ShiftDurationHoursAdjusted
	}

	out := make([]ClockRow, 0, len(rows))
	for _, r := range rows {
		shop, name, ok := idx.ActiveSchedulingShop(r.Key.PersonalNumber)
		if !ok {
			stats.Unmapped++
			continue
		}
		reg, ok := regions[shop]
		if !ok || !reg.Live() {
			stats.NotLive++
			continue
		}
		r.Shop, r.ShopName, r.Region, r.Area = shop, reg.Name, reg.Region, reg.Area
		r.ResourceName = schema.TitleName(name)
		r.Weekday = weekdayName(r.Key.Date)
		r.Week = r.Key.Date.ISOWeek()
		r.Delta = r.ShiftDurationHoursAdjusted - r.ClockHours
		r.Status = ClassifyDelta(r.Delta)
		switch {
		case r.HasClock && r.HasScheduling:
			stats.Matched++
		case r.HasClock:
			stats.ClockOnly++
		default:
			stats.SchedulingOnly++
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.PersonalNumber != b.PersonalNumber {
			return a.PersonalNumber < b.PersonalNumber
		}
		return a.Date.Before(b.Date)
	})
	return ClockResult{Rows: out, Days: inWindow, Stats: stats}
}

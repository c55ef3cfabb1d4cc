package engine

import (
	"sort"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Interval is a half-open wall-clock span.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Hours is the interval length, zero when inverted.
func (iv Interval) Hours() float64 {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start).Hours()
}

// ShiftDay is the canonical shift total of one employee on one day.
type ShiftDay struct {
	Employee       EmployeeKey   `json:"employee"`
	Date           timeutil.Date `json:"date"`
	ResourceName   string        `json:"resourceName"`
	PersonalNumber string        `json:"personalNumber"`
	Role           string        `json:"role"`
	ShopName       string        `json:"shopName"`
	Country        string        `json:"country"`
	Hours          float64       `json:"hours"`
	Intervals      []Interval    `json:"intervals"`
}

// ShiftStats counts what shift normalization discarded.
type ShiftStats struct {
	Input            int `json:"input"`
	OutsideWindow    int `json:"outsideWindow"`
	DuplicateHour    int `json:"duplicateHour"`
	InactiveMember   int `json:"inactiveMember"`
	DuplicateNumber  int `json:"duplicateNumber"`
	InvertedInterval int `json:"invertedInterval"`
	Kept             int `json:"kept"`
}

// ShiftResult is the output of NormalizeShifts.
type ShiftResult struct {
	Shifts []schema.ShiftRecord `json:"shifts"`
	Days   []ShiftDay           `json:"days"`
	Stats  ShiftStats           `json:"stats"`
}

// hourKey collapses re-saved edits of the same shift: same shop, same
// resource name, same starting hour.
type hourKey struct {
	shop string
	name string
	hour int64
}

type numberKey struct {
	employee EmployeeKey
	number   string
}

// NormalizeShifts reduces raw shift rows to one record per shift edit chain
// and aggregates them per employee-day:
//  1. keep shifts lying inside the window
//  2. per (shop, resource name, start hour) keep the latest modified
//  3. keep shifts whose membership is active for the window
//  4. per (shop, resource, shift number) keep the latest modified
//  5. sum durations per (employee, day)
//
// Ties on last-modified keep the row that came first in the export.
func NormalizeShifts(shifts []schema.ShiftRecord, memberships []schema.Membership, window timeutil.Window) ShiftResult {
	stats := ShiftStats{Input: len(shifts)}

	inWindow := make([]schema.ShiftRecord, 0, len(shifts))
	for _, s := range shifts {
		if !window.ContainsInterval(s.Start, s.End) {
			stats.OutsideWindow++
			continue
		}
		inWindow = append(inWindow, s)
	}

	latestFirst(inWindow)
	seenHour := make(map[hourKey]bool, len(inWindow))
	deduped := inWindow[:0]
	for _, s := range inWindow {
		k := hourKey{shop: s.Shop, name: s.ResourceName, hour: s.HourBucket().Unix()}
		if seenHour[k] {
			stats.DuplicateHour++
			continue
		}
		seenHour[k] = true
		deduped = append(deduped, s)
	}

	active := ActiveMemberships(memberships, window)
	seenNumber := make(map[numberKey]bool, len(deduped))
	kept := make([]schema.ShiftRecord, 0, len(deduped))
	for _, s := range deduped {
		emp := EmployeeKey{Shop: s.Shop, ResourceID: s.ResourceID}
		if !active[emp] {
			stats.InactiveMember++
			continue
		}
		if s.ShiftNumber != "" {
			k := numberKey{employee: emp, number: s.ShiftNumber}
			if seenNumber[k] {
				stats.DuplicateNumber++
				continue
			}
			seenNumber[k] = true
		}
		if !s.End.After(s.Start) {
			stats.InvertedInterval++
		}
		kept = append(kept, s)
	}
	sortShifts(kept)
	stats.Kept = len(kept)

	return ShiftResult{Shifts: kept, Days: aggregateShiftDays(kept), Stats: stats}
}

// ActiveMemberships reduces memberships to the latest effective start per
// (shop, resource) and reports which of them are active for the window: the
// resource is flagged active and the membership period overlaps the window.
func ActiveMemberships(memberships []schema.Membership, window timeutil.Window) map[EmployeeKey]bool {
	latest := make(map[EmployeeKey]schema.Membership, len(memberships))
	for _, m := range memberships {
		k := EmployeeKey{Shop: m.Shop, ResourceID: m.ResourceID}
		if cur, ok := latest[k]; ok && !m.EffectiveStart.After(cur.EffectiveStart) {
			continue
		}
		latest[k] = m
	}

	active := make(map[EmployeeKey]bool, len(latest))
	for k, m := range latest {
		active[k] = m.ResourceActive && m.ActiveDuring(window)
	}
	return active
}

// latestFirst orders shifts by last-modified descending, stable on input order.
func latestFirst(shifts []schema.ShiftRecord) {
	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].LastModified.After(shifts[j].LastModified)
	})
}

func sortShifts(shifts []schema.ShiftRecord) {
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.Shop != b.Shop {
			return a.Shop < b.Shop
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.Start.Before(b.Start)
	})
}

// aggregateShiftDays sums durations per (employee, start day). Metadata comes
// from the first shift of the day carrying it.
func aggregateShiftDays(shifts []schema.ShiftRecord) []ShiftDay {
	index := make(map[EmployeeDay]int, len(shifts))
	var days []ShiftDay
	for _, s := range shifts {
		k := EmployeeDay{Employee: EmployeeKey{Shop: s.Shop, ResourceID: s.ResourceID}, Date: s.Date()}
		i, ok := index[k]
		if !ok {
			i = len(days)
			index[k] = i
			days = append(days, ShiftDay{Employee: k.Employee, Date: k.Date})
		}
		d := &days[i]
		d.Hours += s.DurationHours()
		d.Intervals = append(d.Intervals, Interval{Start: s.Start, End: s.End})
		fillString(&d.ResourceName, s.ResourceName)
		fillString(&d.PersonalNumber, s.PersonalNumber)
		fillString(&d.Role, s.Role)
		fillString(&d.ShopName, s.ShopName)
		fillString(&d.Country, s.Country)
	}
	return days
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

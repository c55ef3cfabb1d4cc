package engine

import (
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// DefaultWeeklyHours converts an HR FTE fraction to weekly hours.
const DefaultWeeklyHours = 40.0

// HCMInput is what the HR-system reconciliation needs.
type HCMInput struct {
	Window      timeutil.Window
	Employees   []EmployeeRow
	HCM         []schema.HCMRecord
	Identity    *IdentityIndex
	Regions     []schema.RegionMapping
	WeeklyHours float64
}

// HCMRow compares scheduled hours with HR-reported hours for one employee
// and ISO week. A side with no rows is zero in the delta and flagged by its
// Has* field.
type HCMRow struct {
	Key             WeekKey     `json:"key"`
	ResourceName    string      `json:"resourceName"`
	ShopName        string      `json:"shopName"`
	Region          string      `json:"region"`
	Area            string      `json:"area"`
	SchedulingHours float64     `json:"schedulingHours"`
	FTE             float64     `json:"fte"`
	HCMHours        float64     `json:"hcmHours"`
	HasScheduling   bool        `json:"hasScheduling"`
	HasHCM          bool        `json:"hasHcm"`
	Delta           float64     `json:"delta"`
	Status          DeltaStatus `json:"status"`
	MatchType       MatchType   `json:"matchType,omitempty"`
}

// HCMStats counts the outcome of the HR reconciliation.
type HCMStats struct {
	HCMInput         int             `json:"hcmInput"`
	HCMOutsideWindow int             `json:"hcmOutsideWindow"`
	NoPersonalNumber int             `json:"noPersonalNumber"`
	Matched          int             `json:"matched"`
	SchedulingOnly   int             `json:"schedulingOnly"`
	HCMOnly          int             `json:"hcmOnly"`
	NotLive          int             `json:"notLive"`
	Identity         IdentityStats   `json:"identity"`
	Conflicts        []FieldConflict `json:"conflicts,omitempty"`
}

// HCMResult is the output of ReconcileHCM.
type HCMResult struct {
	Rows  []HCMRow `json:"rows"`
	Stats HCMStats `json:"stats"`
}

// ReconcileHCM sums scheduled shift hours per (shop, personal number, ISO
// week), converts HR FTE fractions to hours, and full-outer-joins the two on
// that key. HR rows are first resolved to scheduling personal numbers through
// the identity cascade. Only shops live on the scheduling system are kept.
// Delta is scheduling minus HR.
func ReconcileHCM(in HCMInput) HCMResult {
	weekly := in.WeeklyHours
	if weekly <= 0 {
		weekly = DefaultWeeklyHours
	}
	idx := in.Identity
	if idx == nil {
		idx = BuildIdentityIndex(nil, in.Employees)
	}
	regions := make(map[string]schema.RegionMapping, len(in.Regions))
	for _, r := range in.Regions {
		regions[r.Code] = r
	}

	stats := HCMStats{HCMInput: len(in.HCM)}
	rows := make(map[WeekKey]*HCMRow)
	row := func(k WeekKey) *HCMRow {
		r, ok := rows[k]
		if !ok {
			r = &HCMRow{Key: k}
			rows[k] = r
		}
		return r
	}

	for _, e := range in.Employees {
		if e.PersonalNumber == "" {
			stats.NoPersonalNumber++
			continue
		}
		r := row(WeekKey{Shop: e.Shop, PersonalNumber: e.PersonalNumber, Week: e.Date.ISOWeek()})
		r.SchedulingHours += e.ShiftDurationHours
		r.HasScheduling = true
		fillString(&r.ResourceName, e.ResourceName)
	}

	// the HR side's resolved name takes precedence for display
	hcmNames := make(map[WeekKey]string)
	for _, h := range in.HCM {
		if !in.Window.ContainsWeek(h.Week) {
			stats.HCMOutsideWindow++
			continue
		}
		res := idx.ResolveHCM(h)
		stats.Identity.count(res)
		stats.Conflicts = append(stats.Conflicts, res.Conflicts...)

		k := WeekKey{Shop: h.Shop, PersonalNumber: res.PersonalNumber, Week: h.Week}
		r := row(k)
		r.FTE += h.FTE
		if !r.HasHCM {
			r.MatchType = res.MatchType
		}
		r.HasHCM = true
		if _, ok := hcmNames[k]; !ok && res.ResourceName != "" {
			hcmNames[k] = res.ResourceName
		}
	}

	out := make([]HCMRow, 0, len(rows))
	for _, r := range rows {
		reg, ok := regions[r.Key.Shop]
		if !ok || !reg.Live() {
			stats.NotLive++
			continue
		}
		r.ShopName, r.Region, r.Area = reg.Name, reg.Region, reg.Area
		r.HCMHours = r.FTE * weekly
		r.Delta = r.SchedulingHours - r.HCMHours
		r.Status = ClassifyDelta(r.Delta)
		if name, ok := hcmNames[r.Key]; ok {
			r.ResourceName = name
		}
		r.ResourceName = schema.TitleName(r.ResourceName)
		switch {
		case r.HasScheduling && r.HasHCM:
			stats.Matched++
		case r.HasScheduling:
			stats.SchedulingOnly++
		default:
			stats.HCMOnly++
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Shop != b.Shop {
			return a.Shop < b.Shop
		}
		if a.PersonalNumber != b.PersonalNumber {
			return a.PersonalNumber < b.PersonalNumber
		}
		return a.Week.Compare(b.Week) < 0
	})
	return HCMResult{Rows: out, Stats: stats}
}

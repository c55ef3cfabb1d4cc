package engine

import (
	"math"
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// LedgerInput is everything the slot reconciliation needs for one window.
type LedgerInput struct {
	Window       timeutil.Window
	Shifts       []ShiftDay
	Absences     []AbsenceDay
	Appointments []schema.AppointmentRecord
	Regions      []schema.RegionMapping
}

// EmployeeRow is the per-employee-day breakdown behind a ledger row.
type EmployeeRow struct {
	Shop           string        `json:"shop"`
	ShopName       string        `json:"shopName"`
	Region         string        `json:"region"`
	Area           string        `json:"area"`
	Mapped         bool          `json:"mapped"`
	ResourceID     string        `json:"resourceId"`
	ResourceName   string        `json:"resourceName"`
	PersonalNumber string        `json:"personalNumber"`
	Role           string        `json:"role"`
	Date           timeutil.Date `json:"date"`
	AbsenceType    string        `json:"absenceType"`

	ShiftDurationHours float64 `json:"shiftDurationHours"`
	// RawAbsenceHours is the expanded per-day absence total before it is
	// bounded by the shift.
	RawAbsenceHours      float64 `json:"rawAbsenceHours"`
	AbsenceDurationHours float64 `json:"absenceDurationHours"`
	OverlapHours         float64 `json:"overlapHours"`
	BlockedHours         float64 `json:"blockedHours"`
	BookedHours          float64 `json:"bookedHours"`
	// ShiftDurationHoursAdjusted is the scheduled time net of blocked time,
	// the figure compared against physical clock punches.
	ShiftDurationHoursAdjusted float64            `json:"shiftDurationHoursAdjusted"`
	BookedByCategory           map[string]float64 `json:"bookedByCategory,omitempty"`
}

// SchedulingKey is the "<shop>_<personal number>" key of the row's employee.
func (r EmployeeRow) SchedulingKey() string {
	return schema.SchedulingKey(r.Shop, r.PersonalNumber)
}

// LedgerRow is one shop-day of the slot ledger.
type LedgerRow struct {
	Shop     string           `json:"shop"`
	ShopName string           `json:"shopName"`
	Region   string           `json:"region"`
	Area     string           `json:"area"`
	Mapped   bool             `json:"mapped"`
	Date     timeutil.Date    `json:"date"`
	Weekday  string           `json:"weekday"`
	Week     timeutil.ISOWeek `json:"week"`
	Month    string           `json:"month"`

	TotalHours             float64 `json:"totalHours"`
	BookedHours            float64 `json:"bookedHours"`
	BlockedHours           float64 `json:"blockedHours"`
	AvailableHours         float64 `json:"availableHours"`
	OpenHours              float64 `json:"openHours"`
	SaturationPercentage   float64 `json:"saturationPercentage"`
	BlockedHoursPercentage float64 `json:"blockedHoursPercentage"`

	Status      LedgerStatus `json:"status"`
	BlockedBand BlockedBand  `json:"blockedBand"`
}

// JoinStats reports rows that could not be fully joined.
type JoinStats struct {
	AppointmentsInput         int      `json:"appointmentsInput"`
	AppointmentsOutsideWindow int      `json:"appointmentsOutsideWindow"`
	DuplicateAppointments     int      `json:"duplicateAppointments"`
	ExcludedShopRows          int      `json:"excludedShopRows"`
	UnmappedRows              int      `json:"unmappedRows"`
	MissingShopCodes          []string `json:"missingShopCodes"`
}

// LedgerResult is the output of BuildLedger.
type LedgerResult struct {
	Rows      []LedgerRow   `json:"rows"`
	Employees []EmployeeRow `json:"employees"`
	Stats     JoinStats     `json:"stats"`
}

type appointmentKey struct {
	country, shop, name, account string
	start, end                   int64
}

// DedupAppointments keeps the latest-modified appointment per (country, shop,
// resource name, account, start, end). Ties keep the first row.
func DedupAppointments(appts []schema.AppointmentRecord) ([]schema.AppointmentRecord, int) {
	best := make(map[appointmentKey]int, len(appts))
	out := make([]schema.AppointmentRecord, 0, len(appts))
	dups := 0
	for _, a := range appts {
		k := appointmentKey{
			country: a.Country, shop: a.Shop, name: a.ResourceName, account: a.Account,
			start: a.Start.UnixNano(), end: a.End.UnixNano(),
		}
		if i, ok := best[k]; ok {
			dups++
			if a.LastModified.After(out[i].LastModified) {
				out[i] = a
			}
			continue
		}
		best[k] = len(out)
		out = append(out, a)
	}
	return out, dups
}

// BuildLedger runs the slot reconciliation. Every interval is discretized
// into 5-minute slots per employee-day, then:
//   - booked = appointment slots inside shift slots
//   - overlap = absence slots inside shift slots that are also booked
//   - blocked = max(0, absence hours - overlap hours)
//
// where absence hours is the expanded per-day total bounded by the absence
// time actually inside the shift and by the shift length. Employee-days roll
// up to shop-days, which are cross-joined with every in-scope shop and
// store day of the window so idle shops still appear. Sundays never appear.
func BuildLedger(in LedgerInput) LedgerResult {
	var stats JoinStats
	stats.AppointmentsInput = len(in.Appointments)

	regions := make(map[string]schema.RegionMapping, len(in.Regions))
	for _, r := range in.Regions {
		regions[r.Code] = r
	}

	inWindow := make([]schema.AppointmentRecord, 0, len(in.Appointments))
	for _, a := range in.Appointments {
		if !in.Window.ContainsInterval(a.Start, a.End) {
			stats.AppointmentsOutsideWindow++
			continue
		}
		inWindow = append(inWindow, a)
	}
	appts, dups := DedupAppointments(inWindow)
	stats.DuplicateAppointments = dups

	shiftSlots := make(DaySlots)
	shiftByDay := make(map[EmployeeDay]ShiftDay, len(in.Shifts))
	for _, s := range in.Shifts {
		k := EmployeeDay{Employee: s.Employee, Date: s.Date}
		shiftByDay[k] = s
		for _, iv := range s.Intervals {
			shiftSlots.AddInterval(s.Employee, iv.Start, iv.End)
		}
	}

	absSlots := make(DaySlots)
	absByDay := make(map[EmployeeDay]AbsenceDay, len(in.Absences))
	for _, a := range in.Absences {
		absByDay[EmployeeDay{Employee: a.Employee, Date: a.Date}] = a
		for _, iv := range a.Intervals {
			absSlots.AddInterval(a.Employee, iv.Start, iv.End)
		}
	}

	apptSlots := make(DaySlots)
	catSlots := make(map[string]DaySlots)
	apptNames := make(map[EmployeeKey]string)
	for _, a := range appts {
		emp := EmployeeKey{Shop: a.Shop, ResourceID: a.ResourceID}
		apptSlots.AddInterval(emp, a.Start, a.End)
		cs, ok := catSlots[a.Category]
		if !ok {
			cs = make(DaySlots)
			catSlots[a.Category] = cs
		}
		cs.AddInterval(emp, a.Start, a.End)
		if _, ok := apptNames[emp]; !ok {
			apptNames[emp] = a.ResourceName
		}
	}

	keys := make(map[EmployeeDay]bool, len(shiftByDay)+len(absByDay)+len(apptSlots))
	for k := range shiftByDay {
		keys[k] = true
	}
	for k := range absByDay {
		keys[k] = true
	}
	for k := range apptSlots {
		keys[k] = true
	}

	missing := make(map[string]bool)
	var employees []EmployeeRow
	for k := range keys {
		if !timeutil.IsStoreDay(k.Date) {
			continue
		}
		region, mapped := regions[k.Employee.Shop]
		if mapped && !region.InScope() {
			stats.ExcludedShopRows++
			continue
		}
		if !mapped {
			missing[k.Employee.Shop] = true
			stats.UnmappedRows++
		}

		shift := shiftByDay[k]
		absence := absByDay[k]
		shiftSet := shiftSlots.Get(k)
		booked := apptSlots.Get(k).And(shiftSet)
		absInShift := absSlots.Get(k).And(shiftSet)
		overlap := absInShift.And(booked)

		absHours := math.Min(absence.Hours, math.Min(absInShift.Hours(), shift.Hours))
		blocked := nonNegative(absHours - overlap.Hours())

		row := EmployeeRow{
			Shop:                       k.Employee.Shop,
			ShopName:                   shift.ShopName,
			Mapped:                     mapped,
			ResourceID:                 k.Employee.ResourceID,
			ResourceName:               shift.ResourceName,
			PersonalNumber:             shift.PersonalNumber,
			Role:                       shift.Role,
			Date:                       k.Date,
			AbsenceType:                absence.Type,
			ShiftDurationHours:         shift.Hours,
			RawAbsenceHours:            absence.Hours,
			AbsenceDurationHours:       nonNegative(absHours),
			OverlapHours:               overlap.Hours(),
			BlockedHours:               blocked,
			BookedHours:                booked.Hours(),
			ShiftDurationHoursAdjusted: nonNegative(shift.Hours - blocked),
		}
		if mapped {
			row.Region, row.Area, row.ShopName = region.Region, region.Area, region.Name
		}
		fillString(&row.ResourceName, absence.ResourceName)
		fillString(&row.ResourceName, apptNames[k.Employee])
		fillString(&row.PersonalNumber, absence.PersonalNumber)

		for cat, cs := range catSlots {
			if h := cs.Get(k).And(shiftSet).Hours(); h > 0 {
				if row.BookedByCategory == nil {
					row.BookedByCategory = make(map[string]float64)
				}
				row.BookedByCategory[cat] = h
			}
		}
		employees = append(employees, row)
	}
	sortEmployeeRows(employees)

	stats.MissingShopCodes = sortedKeys(missing)
	return LedgerResult{
		Rows:      rollUp(employees, in.Regions, in.Window),
		Employees: employees,
		Stats:     stats,
	}
}

// rollUp sums employee rows per shop-day and cross-joins with every in-scope
// shop and store day so idle shop-days carry zero rows.
func rollUp(employees []EmployeeRow, regions []schema.RegionMapping, window timeutil.Window) []LedgerRow {
	byShopDay := make(map[ShopDay]*LedgerRow)
	row := func(shop string, date timeutil.Date) *LedgerRow {
		k := ShopDay{Shop: shop, Date: date}
		r, ok := byShopDay[k]
		if !ok {
			r = &LedgerRow{Shop: shop, Date: date}
			byShopDay[k] = r
		}
		return r
	}

	for _, e := range employees {
		r := row(e.Shop, e.Date)
		r.TotalHours += e.ShiftDurationHours
		r.BookedHours += e.BookedHours
		r.BlockedHours += e.BlockedHours
		r.Mapped = e.Mapped
		fillString(&r.ShopName, e.ShopName)
		fillString(&r.Region, e.Region)
		fillString(&r.Area, e.Area)
	}

	for _, reg := range regions {
		if !reg.InScope() {
			continue
		}
		for _, d := range window.Days() {
			if !timeutil.IsStoreDay(d) {
				continue
			}
			r := row(reg.Code, d)
			r.Mapped = true
			r.ShopName, r.Region, r.Area = reg.Name, reg.Region, reg.Area
		}
	}

	rows := make([]LedgerRow, 0, len(byShopDay))
	for _, r := range byShopDay {
		finishLedgerRow(r)
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Shop != rows[j].Shop {
			return rows[i].Shop < rows[j].Shop
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// finishLedgerRow derives the dependent metrics from the summed hours.
func finishLedgerRow(r *LedgerRow) {
	r.TotalHours = nonNegative(r.TotalHours)
	r.BookedHours = nonNegative(r.BookedHours)
	r.BlockedHours = nonNegative(r.BlockedHours)
	r.AvailableHours = nonNegative(r.TotalHours - r.BlockedHours)
	r.OpenHours = math.Max(0, r.TotalHours-r.BookedHours-r.BlockedHours)
	r.SaturationPercentage = Clamp(Percent(r.BookedHours, r.TotalHours), 0, 100)
	r.BlockedHoursPercentage = Clamp(Percent(r.BlockedHours, r.TotalHours), 0, 100)
	r.Status = ClassifyLedger(r.TotalHours, r.OpenHours)
	r.BlockedBand = ClassifyBlocked(r.BlockedHoursPercentage)

	r.Weekday = r.Date.Weekday().String()
	r.Week = r.Date.ISOWeek()
	r.Month = r.Date.Month.String()
}

func sortEmployeeRows(rows []EmployeeRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Shop != b.Shop {
			return a.Shop < b.Shop
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.Date.Before(b.Date)
	})
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// weekdayName is used by reconciliation rows that carry a date but no
// ledger row.
func weekdayName(d timeutil.Date) string {
	return d.Weekday().String()
}

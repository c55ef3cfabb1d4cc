package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alisaleks/Agenda-App/pkg/engine"
)

// Shared column names. The dashboard filters every output on these.
const (
	ColShopCode = "Shop Code"
	ColShopName = "Shop[Name]"
	ColRegion   = "Region"
	ColArea     = "Area"
	ColISOWeek  = "ISO Week"
	ColISOYear  = "ISO Year"
	ColWeekday  = "weekday"
	ColMapped   = "Mapped"
)

// Ledger columns.
const (
	ColDate                   = "Date"
	ColMonth                  = "Month"
	ColTotalHours             = "TotalHours"
	ColBookedHours            = "BookedHours"
	ColBlockedHours           = "BlockedHours"
	ColAvailableHours         = "AvailableHours"
	ColOpenHours              = "OpenHours"
	ColSaturationPercentage   = "SaturationPercentage"
	ColBlockedHoursPercentage = "BlockedHoursPercentage"
	ColStatus                 = "Status"
	ColBlockedBand            = "BlockedBand"
)

// LedgerColumns is the header of the shop-day ledger file.
var LedgerColumns = []string{
	ColShopCode, ColShopName, ColRegion, ColArea, ColDate, ColWeekday, ColISOWeek, ColISOYear, ColMonth,
	ColTotalHours, ColBookedHours, ColBlockedHours, ColAvailableHours, ColOpenHours,
	ColSaturationPercentage, ColBlockedHoursPercentage, ColStatus, ColBlockedBand, ColMapped,
}

// employeeColumns is the fixed part of the per-employee header; one
// "Booked <category>" column per appointment category follows.
var employeeColumns = []string{
	ColShopCode, ColShopName, ColRegion, ColArea, "ResourceId", "Resource Name", "PersonalNumber", "Role",
	"ShiftDate", ColWeekday, ColISOWeek, ColISOYear,
	"ShiftDurationHours", "RawAbsenceHours", "AbsenceDurationHours", "OverlapHours", ColBlockedHours, ColBookedHours,
	"ShiftDurationHoursAdjusted", "AbsenceType", ColMapped,
}

// HCMColumns is the header of the HR reconciliation file.
var HCMColumns = []string{
	"Clave compuesta", ColShopCode, "Shop Name", ColRegion, ColArea, "Personal Number", "Resource Name",
	ColISOYear, ColISOWeek, "Duración SF", "FTE", "Duración HCM", "Diferencia de hcm duración",
	ColStatus, "Match Type", "Source",
}

// ClockColumns is the header of the clock reconciliation file.
var ClockColumns = []string{
	ColShopCode, ColShopName, ColRegion, ColArea, "PersonalNumber", "Resource Name", ColDate, ColWeekday,
	ColISOWeek, ColISOYear, "hours_worked", "hours_worked_numeric",
	"ShiftDurationHours", "AbsenceDurationHours", "ShiftDurationHoursAdjusted", "Diferencia de act duración",
	ColStatus, "Source",
}

// hoursPlaces is the report precision for hours and percentages.
const hoursPlaces = 2

// Round rounds half away from zero to report precision. Slot arithmetic
// produces binary fractions (1/12 h) that must not leak into the files.
func Round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(hoursPlaces).Float64()
	return f
}

// LedgerSheet renders ledger rows.
func LedgerSheet(rows []engine.LedgerRow) Sheet {
	s := Sheet{Name: "ShiftSlots", Table: "ShiftSlotsTable", Columns: LedgerColumns}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{
			r.Shop, r.ShopName, r.Region, r.Area, r.Date.String(), r.Weekday, r.Week.Week, r.Week.Year, r.Month,
			Round(r.TotalHours), Round(r.BookedHours), Round(r.BlockedHours), Round(r.AvailableHours), Round(r.OpenHours),
			Round(r.SaturationPercentage), Round(r.BlockedHoursPercentage), string(r.Status), string(r.BlockedBand), r.Mapped,
		})
	}
	return s
}

// EmployeeSheet renders the per-employee detail with one booked-hours
// column per category seen.
func EmployeeSheet(rows []engine.EmployeeRow) Sheet {
	cats := make(map[string]bool)
	for _, r := range rows {
		for c := range r.BookedByCategory {
			cats[c] = true
		}
	}
	categories := make([]string, 0, len(cats))
	for c := range cats {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	cols := append([]string(nil), employeeColumns...)
	for _, c := range categories {
		cols = append(cols, "Booked "+c)
	}

	s := Sheet{Name: "EmployeeSlots", Table: "EmployeeSlotsTable", Columns: cols}
	for _, r := range rows {
		week := r.Date.ISOWeek()
		row := []any{
			r.Shop, r.ShopName, r.Region, r.Area, r.ResourceID, r.ResourceName, r.PersonalNumber, r.Role,
			r.Date.String(), r.Date.Weekday().String(), week.Week, week.Year,
			Round(r.ShiftDurationHours), Round(r.RawAbsenceHours), Round(r.AbsenceDurationHours), Round(r.OverlapHours),
			Round(r.BlockedHours), Round(r.BookedHours), Round(r.ShiftDurationHoursAdjusted), r.AbsenceType, r.Mapped,
		}
		for _, c := range categories {
			row = append(row, Round(r.BookedByCategory[c]))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// HCMSheet renders the HR reconciliation.
func HCMSheet(rows []engine.HCMRow) Sheet {
	s := Sheet{Name: "HCM", Table: "HCMTable", Columns: HCMColumns}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{
			r.Key.String(), r.Key.Shop, r.ShopName, r.Region, r.Area, r.Key.PersonalNumber, r.ResourceName,
			r.Key.Week.Year, r.Key.Week.Week, Round(r.SchedulingHours), Round(r.FTE), Round(r.HCMHours), Round(r.Delta),
			string(r.Status), string(r.MatchType), sourceLabel(r.HasScheduling, r.HasHCM, "hcm_only"),
		})
	}
	return s
}

// ClockSheet renders the clock reconciliation. hours_worked carries the NC
// marker; hours_worked_numeric is what aggregates use.
func ClockSheet(rows []engine.ClockRow) Sheet {
	s := Sheet{Name: "Clock", Table: "ClockTable", Columns: ClockColumns}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{
			r.Shop, r.ShopName, r.Region, r.Area, r.Key.PersonalNumber, r.ResourceName, r.Key.Date.String(), r.Weekday,
			r.Week.Week, r.Week.Year, r.HoursWorked(), Round(r.ClockHours),
			Round(r.ShiftDurationHours), Round(r.AbsenceDurationHours), Round(r.ShiftDurationHoursAdjusted), Round(r.Delta),
			string(r.Status), sourceLabel(r.HasScheduling, r.HasClock, "clock_only"),
		})
	}
	return s
}

func sourceLabel(scheduling, other bool, otherOnly string) string {
	switch {
	case scheduling && other:
		return "both"
	case scheduling:
		return "scheduling_only"
	default:
		return otherOnly
	}
}

package schema

import (
	"time"

	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// ShiftRecord is one scheduled shift of a service resource in a shop.
type ShiftRecord struct {
	ShiftNumber    string    `json:"shiftNumber"`
	Label          string    `json:"label"`
	Shop           string    `json:"shop"`
	ShopName       string    `json:"shopName"`
	Country        string    `json:"country"`
	AreaCode       string    `json:"areaCode"`
	StoreType      string    `json:"storeType"`
	ResourceID     string    `json:"resourceId"`
	ResourceName   string    `json:"resourceName"`
	PersonalNumber string    `json:"personalNumber"`
	Role           string    `json:"role"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	LastModified   time.Time `json:"lastModified"`
}

// DurationHours is end minus start in hours, zero for inverted intervals.
func (s ShiftRecord) DurationHours() float64 {
	return clampedHours(s.Start, s.End)
}

// HourBucket is the shift start truncated to the hour.
func (s ShiftRecord) HourBucket() time.Time {
	return s.Start.Truncate(time.Hour)
}

func (s ShiftRecord) Date() timeutil.Date { return timeutil.DateOf(s.Start) }

// Membership is a resource-territory membership: a resource assigned to a
// shop for an effective period.
type Membership struct {
	Shop           string    `json:"shop"`
	ResourceID     string    `json:"resourceId"`
	ResourceName   string    `json:"resourceName"`
	PersonalNumber string    `json:"personalNumber"`
	Role           string    `json:"role"`
	EffectiveStart time.Time `json:"effectiveStart"`
	// EffectiveEnd is zero for open-ended memberships.
	EffectiveEnd   time.Time `json:"effectiveEnd"`
	ResourceActive bool      `json:"resourceActive"`
}

// ActiveDuring reports whether the membership overlaps the window. A missing
// effective start makes the membership inactive; a missing end is infinite.
func (m Membership) ActiveDuring(w timeutil.Window) bool {
	if m.EffectiveStart.IsZero() || m.EffectiveStart.After(w.End) {
		return false
	}
	return m.EffectiveEnd.IsZero() || !m.EffectiveEnd.Before(w.Start)
}

// AppointmentRecord is one booked service appointment.
type AppointmentRecord struct {
	Number       string    `json:"number"`
	Country      string    `json:"country"`
	Shop         string    `json:"shop"`
	ResourceID   string    `json:"resourceId"`
	ResourceName string    `json:"resourceName"`
	Account      string    `json:"account"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	LastModified time.Time `json:"lastModified"`
}

// AbsenceRecord is one resource absence, possibly spanning several days.
type AbsenceRecord struct {
	Number         string    `json:"number"`
	Shop           string    `json:"shop"`
	ResourceID     string    `json:"resourceId"`
	ResourceName   string    `json:"resourceName"`
	PersonalNumber string    `json:"personalNumber"`
	Type           string    `json:"type"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// RegionMapping is static reference data for one shop.
type RegionMapping struct {
	Code   string `json:"code"`
	Region string `json:"region"`
	Area   string `json:"area"`
	Name   string `json:"name"`
	// Symphony is the "SYM" flag: "Y" shops run the scheduling system,
	// "N" shops are excluded from every output.
	Symphony string `json:"symphony"`
}

// InScope reports whether the shop belongs in the ledger.
func (r RegionMapping) InScope() bool { return r.Symphony != "N" }

// Live reports whether the shop is live on the scheduling system, the
// condition for cross-source reconciliation.
func (r RegionMapping) Live() bool { return r.Symphony == "Y" }

// HCMRecord is one row of the HR system's weekly FTE export.
type HCMRecord struct {
	ShopDescr    string           `json:"shopDescr"`
	Shop         string           `json:"shop"`
	EmployeeName string           `json:"employeeName"`
	PersonNumber string           `json:"personNumber"`
	Week         timeutil.ISOWeek `json:"week"`
	FTE          float64          `json:"fte"`
}

// IdentityMapping cross-references HR and scheduling identifiers.
type IdentityMapping struct {
	// HCMKey is the HR system's "<shop>_<person number>" key.
	HCMKey         string `json:"hcmKey"`
	PersonalNumber string `json:"personalNumber"`
	ResourceName   string `json:"resourceName"`
	// SchedulingKey is the scheduling system's "<shop>_<personal number>".
	SchedulingKey string `json:"schedulingKey"`
	Active        bool   `json:"active"`
}

// ClockPunch is one physical clock-in/out event.
type ClockPunch struct {
	HRID      string    `json:"hrId"`
	Timestamp time.Time `json:"timestamp"`
	ShopName  string    `json:"shopName"`
	File      string    `json:"file"`
}

func clampedHours(start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

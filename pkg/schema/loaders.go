package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// DropStats counts the rows of one source that did not survive coercion.
type DropStats struct {
	Source  string         `json:"source"`
	Read    int            `json:"read"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped,omitempty"`
}

func newDropStats(source string, read int) DropStats {
	return DropStats{Source: source, Read: read}
}

func (s *DropStats) drop(reason string) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason]++
}

// DroppedTotal sums every drop reason.
func (s DropStats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Reasons lists drop reasons in a stable order, for logging.
func (s DropStats) Reasons() []string {
	reasons := make([]string, 0, len(s.Dropped))
	for r, c := range s.Dropped {
		reasons = append(reasons, fmt.Sprintf("%s=%d", r, c))
	}
	sort.Strings(reasons)
	return reasons
}

// timestamp reads and normalizes a timestamp cell.
func timestamp(cols Columns, rec map[string]string, field string, tz timeutil.Normalizer) (time.Time, bool) {
	t, hasZone, ok := ParseTimestamp(cols.Get(rec, field))
	if !ok {
		return time.Time{}, false
	}
	return tz.Wall(t, hasZone), true
}

// Shifts coerces a shift export. Rows with an unparseable start, end or
// last-modified timestamp are dropped and counted.
func Shifts(t *parser.Table, tz timeutil.Normalizer) ([]ShiftRecord, DropStats, error) {
	cols, err := ShiftSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(ShiftSource.Name, t.Len())
	out := make([]ShiftRecord, 0, t.Len())
	for _, rec := range t.Records {
		start, okStart := timestamp(cols, rec, "start", tz)
		end, okEnd := timestamp(cols, rec, "end", tz)
		if !okStart || !okEnd {
			stats.drop("unparseable interval")
			continue
		}
		modified, ok := timestamp(cols, rec, "lastModified", tz)
		if !ok {
			stats.drop("unparseable last-modified")
			continue
		}
		shop := CleanCode(cols.Get(rec, "shop"))
		resourceID := cols.Get(rec, "resourceId")
		if shop == "" || resourceID == "" {
			stats.drop("missing employee key")
			continue
		}
		out = append(out, ShiftRecord{
			ShiftNumber:    cols.Get(rec, "shiftNumber"),
			Label:          cols.Get(rec, "label"),
			Shop:           shop,
			ShopName:       cols.Get(rec, "shopName"),
			Country:        cols.Get(rec, "country"),
			AreaCode:       cols.Get(rec, "areaCode"),
			StoreType:      cols.Get(rec, "storeType"),
			ResourceID:     resourceID,
			ResourceName:   cols.Get(rec, "resourceName"),
			PersonalNumber: CleanCode(cols.Get(rec, "personalNumber")),
			Role:           cols.Get(rec, "role"),
			Start:          start,
			End:            end,
			LastModified:   modified,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// Memberships coerces a resource-territory membership export. A missing or
// unparseable effective end is open-ended; a missing effective start is kept
// and later treated as inactive.
func Memberships(t *parser.Table, tz timeutil.Normalizer) ([]Membership, DropStats, error) {
	cols, err := MembershipSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(MembershipSource.Name, t.Len())
	out := make([]Membership, 0, t.Len())
	for _, rec := range t.Records {
		shop := CleanCode(cols.Get(rec, "shop"))
		resourceID := cols.Get(rec, "resourceId")
		if shop == "" || resourceID == "" {
			stats.drop("missing employee key")
			continue
		}
		start, _ := timestamp(cols, rec, "effectiveStart", tz)
		end, _ := timestamp(cols, rec, "effectiveEnd", tz)
		out = append(out, Membership{
			Shop:           shop,
			ResourceID:     resourceID,
			ResourceName:   cols.Get(rec, "resourceName"),
			PersonalNumber: CleanCode(cols.Get(rec, "personalNumber")),
			Role:           cols.Get(rec, "role"),
			EffectiveStart: start,
			EffectiveEnd:   end,
			ResourceActive: ParseBool(cols.Get(rec, "active")),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// Appointments coerces an appointment export and normalizes categories.
func Appointments(t *parser.Table, tz timeutil.Normalizer) ([]AppointmentRecord, DropStats, error) {
	cols, err := AppointmentSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(AppointmentSource.Name, t.Len())
	out := make([]AppointmentRecord, 0, t.Len())
	for _, rec := range t.Records {
		start, okStart := timestamp(cols, rec, "start", tz)
		end, okEnd := timestamp(cols, rec, "end", tz)
		if !okStart || !okEnd {
			stats.drop("unparseable interval")
			continue
		}
		modified, ok := timestamp(cols, rec, "lastModified", tz)
		if !ok {
			stats.drop("unparseable last-modified")
			continue
		}
		shop := CleanCode(cols.Get(rec, "shop"))
		resourceID := cols.Get(rec, "resourceId")
		if shop == "" || resourceID == "" {
			stats.drop("missing employee key")
			continue
		}
		out = append(out, AppointmentRecord{
			Number:       cols.Get(rec, "number"),
			Country:      cols.Get(rec, "country"),
			Shop:         shop,
			ResourceID:   resourceID,
			ResourceName: cols.Get(rec, "resourceName"),
			Account:      cols.Get(rec, "account"),
			Category:     NormalizeCategory(cols.Get(rec, "category")),
			Status:       cols.Get(rec, "status"),
			Start:        start,
			End:          end,
			LastModified: modified,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// Absences coerces an absence export.
func Absences(t *parser.Table, tz timeutil.Normalizer) ([]AbsenceRecord, DropStats, error) {
	cols, err := AbsenceSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(AbsenceSource.Name, t.Len())
	out := make([]AbsenceRecord, 0, t.Len())
	for _, rec := range t.Records {
		start, okStart := timestamp(cols, rec, "start", tz)
		end, okEnd := timestamp(cols, rec, "end", tz)
		if !okStart || !okEnd {
			stats.drop("unparseable interval")
			continue
		}
		shop := CleanCode(cols.Get(rec, "shop"))
		resourceID := cols.Get(rec, "resourceId")
		if shop == "" || resourceID == "" {
			stats.drop("missing employee key")
			continue
		}
		out = append(out, AbsenceRecord{
			Number:         cols.Get(rec, "number"),
			Shop:           shop,
			ResourceID:     resourceID,
			ResourceName:   cols.Get(rec, "resourceName"),
			PersonalNumber: CleanCode(cols.Get(rec, "personalNumber")),
			Type:           cols.Get(rec, "type"),
			Start:          start,
			End:            end,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// Regions coerces the region mapping table. Duplicate codes keep the first row.
func Regions(t *parser.Table) ([]RegionMapping, DropStats, error) {
	cols, err := RegionSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(RegionSource.Name, t.Len())
	seen := make(map[string]bool, t.Len())
	out := make([]RegionMapping, 0, t.Len())
	for _, rec := range t.Records {
		code := CleanCode(cols.Get(rec, "code"))
		if code == "" {
			stats.drop("missing code")
			continue
		}
		if seen[code] {
			stats.drop("duplicate code")
			continue
		}
		seen[code] = true
		out = append(out, RegionMapping{
			Code:     code,
			Region:   cols.Get(rec, "region"),
			Area:     cols.Get(rec, "area"),
			Name:     cols.Get(rec, "name"),
			Symphony: strings.ToUpper(cols.Get(rec, "symphony")),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// HCM coerces the HR system's weekly FTE export.
func HCM(t *parser.Table) ([]HCMRecord, DropStats, error) {
	cols, err := HCMSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(HCMSource.Name, t.Len())
	out := make([]HCMRecord, 0, t.Len())
	for _, rec := range t.Records {
		week, okWeek := ParseNumber(cols.Get(rec, "isoWeek"))
		year, okYear := ParseNumber(cols.Get(rec, "isoYear"))
		if !okWeek || !okYear || week < 1 || week > 53 {
			stats.drop("unparseable ISO week")
			continue
		}
		fte, ok := ParseNumber(cols.Get(rec, "fte"))
		if !ok {
			stats.drop("unparseable FTE")
			continue
		}
		descr := cols.Get(rec, "shopDescr")
		pn := CleanCode(cols.Get(rec, "personNumber"))
		if descr == "" || pn == "" {
			stats.drop("missing employee key")
			continue
		}
		out = append(out, HCMRecord{
			ShopDescr:    descr,
			Shop:         ShopCodeFromDescr(descr),
			EmployeeName: cols.Get(rec, "employeeName"),
			PersonNumber: pn,
			Week:         timeutil.ISOWeek{Year: int(year), Week: int(week)},
			FTE:          fte,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// IdentityMappings coerces the HR <-> scheduling cross-mapping table. A
// missing Active column means every mapping is active.
func IdentityMappings(t *parser.Table) ([]IdentityMapping, DropStats, error) {
	cols, err := IdentitySource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	_, hasActive := cols["active"]
	stats := newDropStats(IdentitySource.Name, t.Len())
	out := make([]IdentityMapping, 0, t.Len())
	for _, rec := range t.Records {
		hcmKey := cols.Get(rec, "hcmKey")
		if hcmKey == "" {
			stats.drop("missing HCM key")
			continue
		}
		active := true
		if hasActive {
			active = ParseBool(cols.Get(rec, "active"))
		}
		out = append(out, IdentityMapping{
			HCMKey:         hcmKey,
			PersonalNumber: CleanCode(cols.Get(rec, "personalNumber")),
			ResourceName:   cols.Get(rec, "resourceName"),
			SchedulingKey:  cols.Get(rec, "schedulingKey"),
			Active:         active,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// ClockPunches coerces concatenated clock exports. Rows without an HR id or
// with an unparseable timestamp are dropped.
func ClockPunches(t *parser.Table, tz timeutil.Normalizer) ([]ClockPunch, DropStats, error) {
	cols, err := ClockSource.Resolve(t)
	if err != nil {
		return nil, DropStats{}, err
	}
	stats := newDropStats(ClockSource.Name, t.Len())
	out := make([]ClockPunch, 0, t.Len())
	for _, rec := range t.Records {
		id := CleanHRID(cols.Get(rec, "hrId"))
		if id == "" {
			stats.drop("missing HR id")
			continue
		}
		ts, ok := timestamp(cols, rec, "timestamp", tz)
		if !ok {
			stats.drop("unparseable timestamp")
			continue
		}
		out = append(out, ClockPunch{
			HRID:      id,
			Timestamp: ts,
			ShopName:  CleanClockShop(cols.Get(rec, "shopName")),
			File:      cols.Get(rec, "file"),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// SchedulingKey builds the "<shop>_<personal number>" key the cross-mapping
// table uses for scheduling-system employees.
func SchedulingKey(shop, personalNumber string) string {
	return shop + "_" + personalNumber
}

// SplitSchedulingKey reverses SchedulingKey, splitting on the first
// underscore. Keys without one take the first three characters as the shop.
func SplitSchedulingKey(key string) (shop, personalNumber string) {
	if i := strings.IndexByte(key, '_'); i >= 0 {
		return key[:i], key[i+1:]
	}
	if len(key) >= 3 {
		return key[:3], key[3:]
	}
	return key, ""
}

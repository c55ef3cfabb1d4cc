package report

import (
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/engine"
)

// RegionSummary rolls the ledger up to one region.
type RegionSummary struct {
	Region                 string  `json:"region"`
	Shops                  int     `json:"shops"`
	TotalHours             float64 `json:"totalHours"`
	BookedHours            float64 `json:"bookedHours"`
	BlockedHours           float64 `json:"blockedHours"`
	OpenHours              float64 `json:"openHours"`
	SaturationPercentage   float64 `json:"saturationPercentage"`
	BlockedHoursPercentage float64 `json:"blockedHoursPercentage"`
}

// StatusSummary counts shop-days per ledger status.
type StatusSummary struct {
	Closed int `json:"closed"`
	Full   int `json:"full"`
	Open   int `json:"open"`
}

// DeltaSummary counts reconciliation rows per delta status.
type DeltaSummary struct {
	OK    int `json:"ok"`
	Warn  int `json:"warn"`
	Alert int `json:"alert"`
}

// Summary is the compiled view of one run across all three reconciliations.
type Summary struct {
	Regions          []RegionSummary `json:"regions"`
	Status           StatusSummary   `json:"status"`
	HCM              DeltaSummary    `json:"hcm"`
	Clock            DeltaSummary    `json:"clock"`
	ClockNC          int             `json:"clockNc"`
	MissingShopCodes []string        `json:"missingShopCodes"`
	TotalShopDays    int             `json:"totalShopDays"`
	TotalEmployees   int             `json:"totalEmployees"`
}

// MergeResults compiles the ledger and the optional HR and clock
// reconciliations into a Summary. Unmapped shops count towards the status
// totals but not towards any region.
func MergeResults(ledger engine.LedgerResult, hcm *engine.HCMResult, clock *engine.ClockResult) *Summary {
	s := &Summary{
		TotalShopDays:    len(ledger.Rows),
		MissingShopCodes: append([]string(nil), ledger.Stats.MissingShopCodes...),
	}

	byRegion := make(map[string]*cell)
	shops := make(map[string]map[string]bool)
	for _, r := range ledger.Rows {
		updateStatusSummary(&s.Status, r.Status)
		if !r.Mapped {
			continue
		}
		c, ok := byRegion[r.Region]
		if !ok {
			c = &cell{}
			byRegion[r.Region] = c
			shops[r.Region] = make(map[string]bool)
		}
		c.add(r)
		shops[r.Region][r.Shop] = true
	}
	for region, c := range byRegion {
		s.Regions = append(s.Regions, RegionSummary{
			Region:                 region,
			Shops:                  len(shops[region]),
			TotalHours:             Round(c.total),
			BookedHours:            Round(c.booked),
			BlockedHours:           Round(c.blocked),
			OpenHours:              Round(c.value(MetricOpen)),
			SaturationPercentage:   Round(c.value(MetricSaturation)),
			BlockedHoursPercentage: Round(c.value(MetricBlockedPct)),
		})
	}
	sort.Slice(s.Regions, func(i, j int) bool { return s.Regions[i].Region < s.Regions[j].Region })

	employees := make(map[string]bool)
	for _, e := range ledger.Employees {
		employees[e.SchedulingKey()] = true
	}
	s.TotalEmployees = len(employees)

	if hcm != nil {
		for _, r := range hcm.Rows {
			updateDeltaSummary(&s.HCM, r.Status)
		}
	}
	if clock != nil {
		for _, r := range clock.Rows {
			updateDeltaSummary(&s.Clock, r.Status)
			if r.HasClock && r.ClockNC {
				s.ClockNC++
			}
		}
	}
	return s
}

func updateStatusSummary(s *StatusSummary, status engine.LedgerStatus) {
	switch status {
	case engine.StatusClosed:
		s.Closed++
	case engine.StatusFull:
		s.Full++
	case engine.StatusOpen:
		s.Open++
	}
}

func updateDeltaSummary(s *DeltaSummary, status engine.DeltaStatus) {
	switch status {
	case engine.DeltaOK:
		s.OK++
	case engine.DeltaWarn:
		s.Warn++
	case engine.DeltaAlert:
		s.Alert++
	}
}

// CountDeltas tallies the Status column of reconciliation records read back
// from a report file.
func CountDeltas(records []map[string]string) DeltaSummary {
	var s DeltaSummary
	for _, rec := range records {
		updateDeltaSummary(&s, engine.DeltaStatus(rec[ColStatus]))
	}
	return s
}

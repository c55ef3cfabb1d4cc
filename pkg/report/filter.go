package report

import (
	"errors"
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// NoShopsWarning is the banner shown for an empty filter result.
const NoShopsWarning = "No shops found for the selected filter criteria."

// ErrNoShops is returned when a filter leaves nothing to show.
var ErrNoShops = errors.New("no shops found for the selected filter criteria")

// Filter selects rows by ISO week, region, area and shop. An empty list
// matches everything.
type Filter struct {
	Weeks   []timeutil.ISOWeek `json:"weeks,omitempty"`
	Regions []string           `json:"regions,omitempty"`
	Areas   []string           `json:"areas,omitempty"`
	Shops   []string           `json:"shops,omitempty"`
}

// Match reports whether a row with these attributes passes the filter.
func (f Filter) Match(region, area, shop string, week timeutil.ISOWeek) bool {
	return matchAny(f.Regions, region) && matchAny(f.Areas, area) && matchAny(f.Shops, shop) && matchWeek(f.Weeks, week)
}

func matchAny(allowed []string, v string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func matchWeek(allowed []timeutil.ISOWeek, w timeutil.ISOWeek) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == w {
			return true
		}
	}
	return false
}

// FilterLedger keeps mapped ledger rows passing f. Unmapped shops belong in
// the raw ledger only, never in region views.
func FilterLedger(rows []engine.LedgerRow, f Filter) ([]engine.LedgerRow, error) {
	var out []engine.LedgerRow
	for _, r := range rows {
		if r.Mapped && f.Match(r.Region, r.Area, r.Shop, r.Week) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoShops
	}
	return out, nil
}

// FilterTable applies f to a generic output table using the shared column
// names. Rows without a region are excluded.
func FilterTable(t *parser.Table, f Filter) ([]map[string]string, error) {
	var out []map[string]string
	for _, rec := range t.Records {
		if rec[ColRegion] == "" {
			continue
		}
		week, ok := weekOf(rec)
		if !ok && len(f.Weeks) > 0 {
			continue
		}
		if f.Match(rec[ColRegion], rec[ColArea], rec[ColShopCode], week) {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoShops
	}
	return out, nil
}

// Options lists the distinct filter values present in the ledger, for
// populating selectors.
type Options struct {
	Weeks   []timeutil.ISOWeek `json:"weeks"`
	Regions []string           `json:"regions"`
	Areas   []string           `json:"areas"`
	Shops   []string           `json:"shops"`
}

func FilterOptions(rows []engine.LedgerRow) Options {
	weeks := make(map[timeutil.ISOWeek]bool)
	regions, areas, shops := make(map[string]bool), make(map[string]bool), make(map[string]bool)
	for _, r := range rows {
		if !r.Mapped {
			continue
		}
		weeks[r.Week] = true
		regions[r.Region] = true
		areas[r.Area] = true
		shops[r.Shop] = true
	}
	opts := Options{Regions: keys(regions), Areas: keys(areas), Shops: keys(shops)}
	for w := range weeks {
		opts.Weeks = append(opts.Weeks, w)
	}
	sort.Slice(opts.Weeks, func(i, j int) bool { return opts.Weeks[i].Compare(opts.Weeks[j]) < 0 })
	return opts
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Metric names a pivotable ledger measure.
type Metric string

const (
	MetricTotal      Metric = ColTotalHours
	MetricBooked     Metric = ColBookedHours
	MetricBlocked    Metric = ColBlockedHours
	MetricAvailable  Metric = ColAvailableHours
	MetricOpen       Metric = ColOpenHours
	MetricSaturation Metric = ColSaturationPercentage
	MetricBlockedPct Metric = ColBlockedHoursPercentage
)

// ParseMetric validates a metric name, defaulting to open hours.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case "":
		return MetricOpen, nil
	case MetricTotal, MetricBooked, MetricBlocked, MetricAvailable, MetricOpen, MetricSaturation, MetricBlockedPct:
		return m, nil
	}
	return "", errors.New("unknown metric " + s)
}

// cell accumulates the hour sums a pivot cell needs; percentages are
// recomputed from sums rather than summed.
type cell struct {
	total, booked, blocked float64
}

func (c *cell) add(r engine.LedgerRow) {
	c.total += r.TotalHours
	c.booked += r.BookedHours
	c.blocked += r.BlockedHours
}

func (c cell) value(m Metric) float64 {
	switch m {
	case MetricTotal:
		return c.total
	case MetricBooked:
		return c.booked
	case MetricBlocked:
		return c.blocked
	case MetricAvailable:
		return c.total - c.blocked
	case MetricSaturation:
		return engine.Clamp(engine.Percent(c.booked, c.total), 0, 100)
	case MetricBlockedPct:
		return engine.Clamp(engine.Percent(c.blocked, c.total), 0, 100)
	default:
		return max(0, c.total-c.booked-c.blocked)
	}
}

// PivotRow is one shop of a shop x week pivot.
type PivotRow struct {
	Shop     string             `json:"shop"`
	ShopName string             `json:"shopName"`
	Region   string             `json:"region"`
	Area     string             `json:"area"`
	Values   map[string]float64 `json:"values"`
	Total    float64            `json:"total"`
}

// Pivot is a shop x ISO week table of one metric with row and column totals.
type Pivot struct {
	Metric Metric             `json:"metric"`
	Weeks  []string           `json:"weeks"`
	Rows   []PivotRow         `json:"rows"`
	Totals map[string]float64 `json:"totals"`
	Grand  float64            `json:"grand"`
}

// PivotByShopWeek pivots ledger rows on shop and ISO week.
func PivotByShopWeek(rows []engine.LedgerRow, m Metric) Pivot {
	type shopInfo struct{ name, region, area string }
	cells := make(map[string]map[string]*cell)
	shops := make(map[string]shopInfo)
	colCells := make(map[string]*cell)
	rowCells := make(map[string]*cell)
	var grand cell
	weekSet := make(map[string]timeutil.ISOWeek)

	for _, r := range rows {
		w := r.Week.String()
		weekSet[w] = r.Week
		if _, ok := cells[r.Shop]; !ok {
			cells[r.Shop] = make(map[string]*cell)
			shops[r.Shop] = shopInfo{r.ShopName, r.Region, r.Area}
			rowCells[r.Shop] = &cell{}
		}
		c, ok := cells[r.Shop][w]
		if !ok {
			c = &cell{}
			cells[r.Shop][w] = c
		}
		c.add(r)
		rowCells[r.Shop].add(r)
		if colCells[w] == nil {
			colCells[w] = &cell{}
		}
		colCells[w].add(r)
		grand.add(r)
	}

	p := Pivot{Metric: m, Totals: make(map[string]float64), Grand: Round(grand.value(m))}
	for w := range weekSet {
		p.Weeks = append(p.Weeks, w)
	}
	sort.Slice(p.Weeks, func(i, j int) bool { return weekSet[p.Weeks[i]].Compare(weekSet[p.Weeks[j]]) < 0 })
	for _, w := range p.Weeks {
		p.Totals[w] = Round(colCells[w].value(m))
	}

	for _, shop := range keys(boolKeys(cells)) {
		info := shops[shop]
		pr := PivotRow{Shop: shop, ShopName: info.name, Region: info.region, Area: info.area, Values: make(map[string]float64)}
		for w, c := range cells[shop] {
			pr.Values[w] = Round(c.value(m))
		}
		pr.Total = Round(rowCells[shop].value(m))
		p.Rows = append(p.Rows, pr)
	}
	return p
}

func boolKeys[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

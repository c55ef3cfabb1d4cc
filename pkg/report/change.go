package report

import (
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Change compares one metric of one region-week between two ledger runs.
type Change struct {
	Region        string           `json:"region"`
	Week          timeutil.ISOWeek `json:"week"`
	Metric        Metric           `json:"metric"`
	Current       float64          `json:"current"`
	Baseline      float64          `json:"baseline"`
	Delta         float64          `json:"delta"`
	PercentChange float64          `json:"percentChange"`
}

var changeMetrics = []Metric{MetricTotal, MetricBlocked, MetricBooked, MetricOpen}

type regionWeek struct {
	region string
	week   timeutil.ISOWeek
}

// CompareLedgers sums hours per (region, ISO week) in both ledgers and
// reports the change of each metric. Percent change is 0 when the baseline
// is 0. Region-weeks present on only one side compare against zero.
func CompareLedgers(current, baseline []engine.LedgerRow) []Change {
	cur := sumByRegionWeek(current)
	base := sumByRegionWeek(baseline)

	all := make(map[regionWeek]bool, len(cur)+len(base))
	for k := range cur {
		all[k] = true
	}
	for k := range base {
		all[k] = true
	}
	ordered := make([]regionWeek, 0, len(all))
	for k := range all {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].region != ordered[j].region {
			return ordered[i].region < ordered[j].region
		}
		return ordered[i].week.Compare(ordered[j].week) < 0
	})

	var changes []Change
	for _, k := range ordered {
		c, b := cur[k], base[k]
		for _, m := range changeMetrics {
			now, before := c.value(m), b.value(m)
			changes = append(changes, Change{
				Region:        k.region,
				Week:          k.week,
				Metric:        m,
				Current:       Round(now),
				Baseline:      Round(before),
				Delta:         Round(now - before),
				PercentChange: Round(engine.Percent(now-before, before)),
			})
		}
	}
	return changes
}

func sumByRegionWeek(rows []engine.LedgerRow) map[regionWeek]cell {
	out := make(map[regionWeek]cell)
	for _, r := range rows {
		if !r.Mapped {
			continue
		}
		k := regionWeek{region: r.Region, week: r.Week}
		c := out[k]
		c.add(r)
		out[k] = c
	}
	return out
}

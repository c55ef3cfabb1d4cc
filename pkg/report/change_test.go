package report

import (
	"testing"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
)

func TestCompareLedgers(t *testing.T) {
	current := []engine.LedgerRow{
		ledgerRow("A01", "NORTE", "N1", day(time.September, 10), 8, 4, 1),
		ledgerRow("A02", "NORTE", "N2", day(time.September, 10), 8, 2, 0),
		ledgerRow("B02", "SUR", "S1", day(time.September, 10), 6, 0, 0),
	}
	baseline := []engine.LedgerRow{
		ledgerRow("A01", "NORTE", "N1", day(time.September, 10), 8, 2, 1),
		ledgerRow("A02", "NORTE", "N2", day(time.September, 10), 8, 2, 0),
	}

	changes := CompareLedgers(current, baseline)
	byKey := make(map[string]Change)
	for _, c := range changes {
		byKey[c.Region+"/"+string(c.Metric)] = c
	}
	if len(changes) != 2*len(changeMetrics) {
		t.Fatalf("changes = %d, want %d", len(changes), 2*len(changeMetrics))
	}

	booked := byKey["NORTE/"+string(MetricBooked)]
	if booked.Current != 6 || booked.Baseline != 4 || booked.Delta != 2 || booked.PercentChange != 50 {
		t.Errorf("NORTE booked = %+v", booked)
	}
	open := byKey["NORTE/"+string(MetricOpen)]
	if open.Delta != -2 {
		t.Errorf("NORTE open delta = %v, want -2", open.Delta)
	}

	newRegion := byKey["SUR/"+string(MetricTotal)]
	if newRegion.Baseline != 0 || newRegion.Delta != 6 || newRegion.PercentChange != 0 {
		t.Errorf("region absent from baseline = %+v, want zero-safe percent", newRegion)
	}
	if changes[0].Region != "NORTE" {
		t.Errorf("first change region = %s, want NORTE", changes[0].Region)
	}
}

func TestCompareLedgersSkipsUnmapped(t *testing.T) {
	r := ledgerRow("Z99", "", "", day(time.September, 10), 8, 0, 0)
	r.Mapped = false
	if got := CompareLedgers([]engine.LedgerRow{r}, nil); len(got) != 0 {
		t.Fatalf("changes = %+v, want none", got)
	}
}

package report

import (
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

func day(month time.Month, d int) timeutil.Date { return timeutil.NewDate(2024, month, d) }

// ledgerRow builds a mapped ledger row with its derived metrics filled in.
func ledgerRow(shop, region, area string, d timeutil.Date, total, booked, blocked float64) engine.LedgerRow {
	open := max(0, total-booked-blocked)
	return engine.LedgerRow{
		Shop:                   shop,
		ShopName:               "Shop " + shop,
		Region:                 region,
		Area:                   area,
		Mapped:                 true,
		Date:                   d,
		Weekday:                d.Weekday().String(),
		Week:                   d.ISOWeek(),
		Month:                  d.Month.String(),
		TotalHours:             total,
		BookedHours:            booked,
		BlockedHours:           blocked,
		AvailableHours:         total - blocked,
		OpenHours:              open,
		SaturationPercentage:   engine.Clamp(engine.Percent(booked, total), 0, 100),
		BlockedHoursPercentage: engine.Clamp(engine.Percent(blocked, total), 0, 100),
		Status:                 engine.ClassifyLedger(total, open),
		BlockedBand:            engine.ClassifyBlocked(engine.Percent(blocked, total)),
	}
}

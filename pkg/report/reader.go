package report

import (
	"fmt"
	"strconv"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// LedgerFromTable decodes a ledger file written by LedgerSheet. Rows with an
// unparseable date become parse warnings.
func LedgerFromTable(t *parser.Table) ([]engine.LedgerRow, []parser.ParseWarning, error) {
	if err := parser.RequireColumns(t, ColShopCode, ColDate, ColTotalHours, ColBookedHours, ColBlockedHours); err != nil {
		return nil, nil, err
	}

	var warnings []parser.ParseWarning
	rows := make([]engine.LedgerRow, 0, t.Len())
	for i, rec := range t.Records {
		date, err := parseDateCell(rec[ColDate])
		if err != nil {
			warnings = append(warnings, parser.ParseWarning{Row: i + 2, Message: err.Error()})
			continue
		}
		r := engine.LedgerRow{
			Shop:                   rec[ColShopCode],
			ShopName:               rec[ColShopName],
			Region:                 rec[ColRegion],
			Area:                   rec[ColArea],
			Mapped:                 !t.Has(ColMapped) || schema.ParseBool(rec[ColMapped]),
			Date:                   date,
			Weekday:                date.Weekday().String(),
			Week:                   date.ISOWeek(),
			Month:                  date.Month.String(),
			TotalHours:             number(rec[ColTotalHours]),
			BookedHours:            number(rec[ColBookedHours]),
			BlockedHours:           number(rec[ColBlockedHours]),
			AvailableHours:         number(rec[ColAvailableHours]),
			OpenHours:              number(rec[ColOpenHours]),
			SaturationPercentage:   number(rec[ColSaturationPercentage]),
			BlockedHoursPercentage: number(rec[ColBlockedHoursPercentage]),
			Status:                 engine.LedgerStatus(rec[ColStatus]),
			BlockedBand:            engine.BlockedBand(rec[ColBlockedBand]),
		}
		if r.Status == "" {
			r.Status = engine.ClassifyLedger(r.TotalHours, r.OpenHours)
		}
		if r.BlockedBand == "" {
			r.BlockedBand = engine.ClassifyBlocked(r.BlockedHoursPercentage)
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// parseDateCell accepts ISO dates and Excel serials.
func parseDateCell(s string) (timeutil.Date, error) {
	if d, err := timeutil.ParseDate(s); err == nil {
		return d, nil
	}
	t, _, ok := schema.ParseTimestamp(s)
	if !ok {
		return timeutil.Date{}, fmt.Errorf("unparseable date %q", s)
	}
	return timeutil.DateOf(t), nil
}

func number(s string) float64 {
	v, _ := schema.ParseNumber(s)
	return v
}

// weekOf reads the ISO week columns of a generic output record. Rows that
// carry a date but no week columns fall back to the date.
func weekOf(rec map[string]string) (timeutil.ISOWeek, bool) {
	week, errW := strconv.Atoi(rec[ColISOWeek])
	year, errY := strconv.Atoi(rec[ColISOYear])
	if errW == nil && errY == nil {
		return timeutil.ISOWeek{Year: year, Week: week}, true
	}
	if d, err := parseDateCell(rec[ColDate]); err == nil {
		return d.ISOWeek(), true
	}
	return timeutil.ISOWeek{}, false
}

// LoadLedger reads and decodes a ledger file.
func LoadLedger(path string) ([]engine.LedgerRow, error) {
	t, err := parser.Load(path, parser.Options{})
	if err != nil {
		return nil, err
	}
	rows, _, err := LedgerFromTable(t)
	return rows, err
}

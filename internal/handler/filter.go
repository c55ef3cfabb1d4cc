package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// parseFilter reads week, region, area and shop selections. Each accepts
// repeated parameters or comma-separated values.
func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	f := report.Filter{
		Regions: listParam(q["region"]),
		Areas:   listParam(q["area"]),
		Shops:   listParam(q["shop"]),
	}
	for _, v := range listParam(q["week"]) {
		w, err := parseISOWeek(v)
		if err != nil {
			return report.Filter{}, err
		}
		f.Weeks = append(f.Weeks, w)
	}
	return f, nil
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseISOWeek accepts "2024-W36" and "2024-36".
func parseISOWeek(s string) (timeutil.ISOWeek, error) {
	year, week, ok := strings.Cut(strings.ToUpper(s), "-")
	if !ok {
		return timeutil.ISOWeek{}, fmt.Errorf("invalid week %q, want YYYY-Www", s)
	}
	y, errY := strconv.Atoi(year)
	wk, errW := strconv.Atoi(strings.TrimPrefix(week, "W"))
	if errY != nil || errW != nil || wk < 1 || wk > 53 {
		return timeutil.ISOWeek{}, fmt.Errorf("invalid week %q, want YYYY-Www", s)
	}
	return timeutil.ISOWeek{Year: y, Week: wk}, nil
}

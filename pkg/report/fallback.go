package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Output file prefixes.
const (
	PrefixLedger    = "shiftslots"
	PrefixEmployees = "hcpshiftslots"
	PrefixHCM       = "hcm_sf_merged"
	PrefixClock     = "clock"
	PrefixManifest  = "manifest"
)

// DatedName is "<prefix>_<YYYY-MM-DD>.<ext>".
func DatedName(prefix string, date timeutil.Date, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, date, ext)
}

// FallbackDates lists the dates whose files a reader tries, newest first:
// today, then yesterday (skipped on Mondays, whose yesterday is a Sunday
// without a run), then the last working day before today.
func FallbackDates(today timeutil.Date) []timeutil.Date {
	dates := []timeutil.Date{today}
	if today.Weekday() != time.Monday {
		dates = append(dates, today.AddDays(-1))
	}
	from := today.AddDays(-1)
	if today.Weekday() == time.Monday {
		from = today.AddDays(-3)
	}
	last := timeutil.LastWorkingDay(from)

	for _, d := range dates {
		if d == last {
			return dates
		}
	}
	return append(dates, last)
}

// Resolved is a dated file found by ResolveDated.
type Resolved struct {
	Path    string
	Date    timeutil.Date
	ModTime time.Time
	// Stale is set when the file is not today's.
	Stale bool
}

// ResolveDated finds the newest available "<prefix>_<date>.<ext>" in dir
// following FallbackDates. When none exists the error wraps
// parser.ErrMissingSource.
func ResolveDated(dir, prefix, ext string, today timeutil.Date) (Resolved, error) {
	var tried []string
	for _, d := range FallbackDates(today) {
		path := filepath.Join(dir, DatedName(prefix, d, ext))
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return Resolved{Path: path, Date: d, ModTime: info.ModTime(), Stale: d != today}, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Resolved{}, fmt.Errorf("stat %s: %w", path, err)
		}
		tried = append(tried, filepath.Base(path))
	}
	return Resolved{}, fmt.Errorf("%w: none of %v in %s", parser.ErrMissingSource, tried, dir)
}

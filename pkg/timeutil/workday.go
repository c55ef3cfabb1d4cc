package timeutil

import (
	"fmt"
	"time"
)

// IsStoreDay reports whether shops open on d. Shops close on Sundays.
func IsStoreDay(d Date) bool {
	return d.Weekday() != time.Sunday
}

// IsWorkingDay reports whether d is Monday through Friday, the days on which
// the pipeline produces a dated output file.
func IsWorkingDay(d Date) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// LastWorkingDay returns d itself when it is a working day, otherwise the
// closest working day before it.
func LastWorkingDay(d Date) Date {
	for !IsWorkingDay(d) {
		d = d.AddDays(-1)
	}
	return d
}

// Normalizer converts source timestamps into report-local wall-clock time.
type Normalizer struct {
	Source *time.Location
	Report *time.Location
}

// NewNormalizer loads both locations by IANA name.
func NewNormalizer(source, report string) (Normalizer, error) {
	src, err := time.LoadLocation(source)
	if err != nil {
		return Normalizer{}, fmt.Errorf("load source timezone %q: %w", source, err)
	}
	rep, err := time.LoadLocation(report)
	if err != nil {
		return Normalizer{}, fmt.Errorf("load report timezone %q: %w", report, err)
	}
	return Normalizer{Source: src, Report: rep}, nil
}

// Wall interprets t in the report location. Timestamps that carried an
// explicit zone are converted; naive timestamps are taken as source-local
// wall clock first. The result always lives in the report location.
func (n Normalizer) Wall(t time.Time, hasZone bool) time.Time {
	if t.IsZero() {
		return t
	}
	report := n.Report
	if report == nil {
		report = time.UTC
	}
	if !hasZone {
		src := n.Source
		if src == nil {
			src = report
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), src)
	}
	return t.In(report)
}

// Location returns the report location, defaulting to UTC.
func (n Normalizer) Location() *time.Location {
	if n.Report == nil {
		return time.UTC
	}
	return n.Report
}

package engine

import (
	"math"
	"testing"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// september is the month window of September 2024: Monday 2 September to
// Sunday 6 October.
func september(t *testing.T) timeutil.Window {
	t.Helper()
	w, err := timeutil.NewWindow(
		timeutil.NewDate(2024, time.September, 2),
		timeutil.NewDate(2024, time.October, 6),
		time.UTC,
	)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return w
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

func sep(day, hour, minute int) time.Time { return at(time.September, day, hour, minute) }

func date(month time.Month, day int) timeutil.Date { return timeutil.NewDate(2024, month, day) }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

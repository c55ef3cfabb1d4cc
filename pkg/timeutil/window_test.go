package timeutil

import (
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart Date
		wantEnd   Date
	}{
		{
			name:      "september 2024 starts on a sunday",
			now:       time.Date(2024, time.September, 10, 9, 0, 0, 0, time.UTC),
			wantStart: NewDate(2024, time.September, 2),
			wantEnd:   NewDate(2024, time.October, 6),
		},
		{
			name:      "month opening on a monday",
			now:       time.Date(2024, time.July, 31, 23, 0, 0, 0, time.UTC),
			wantStart: NewDate(2024, time.July, 1),
			wantEnd:   NewDate(2024, time.August, 4),
		},
		{
			name:      "month opening mid week reaches back",
			now:       time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
			wantStart: NewDate(2024, time.April, 29),
			wantEnd:   NewDate(2024, time.June, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := MonthWindow(tt.now)
			if got := w.StartDate(); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := w.EndDate(); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
			if w.Start.Weekday() != time.Monday {
				t.Errorf("start weekday = %s, want Monday", w.Start.Weekday())
			}
			if w.End.Weekday() != time.Sunday {
				t.Errorf("end weekday = %s, want Sunday", w.End.Weekday())
			}
		})
	}
}

func TestMonthWindowKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := MonthWindow(time.Date(2024, time.September, 10, 9, 0, 0, 0, loc))
	if w.Start.Location() != loc {
		t.Fatalf("start location = %s, want %s", w.Start.Location(), loc)
	}
	if w.Start.Hour() != 0 || w.Start.Minute() != 0 {
		t.Fatalf("start = %s, want midnight", w.Start)
	}
}

func TestWindowContains(t *testing.T) {
	w, err := NewWindow(NewDate(2024, time.September, 2), NewDate(2024, time.October, 6), time.UTC)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	at := func(m time.Month, d, h int) time.Time { return time.Date(2024, m, d, h, 0, 0, 0, time.UTC) }

	if !w.ContainsInterval(at(time.September, 2, 9), at(time.September, 2, 13)) {
		t.Error("interval on the first day should be contained")
	}
	if w.ContainsInterval(at(time.September, 1, 22), at(time.September, 2, 2)) {
		t.Error("interval starting before the window should not be contained")
	}
	if !w.Overlaps(at(time.September, 1, 22), at(time.September, 2, 2)) {
		t.Error("interval crossing the start should overlap")
	}
	if w.Overlaps(at(time.October, 7, 9), at(time.October, 7, 10)) {
		t.Error("interval after the end should not overlap")
	}
	if !w.ContainsDate(NewDate(2024, time.October, 6)) {
		t.Error("end date is inclusive")
	}
	if got := len(w.Days()); got != 35 {
		t.Errorf("len(Days) = %d, want 35", got)
	}

	first, last := w.Weeks()
	if first != (ISOWeek{Year: 2024, Week: 36}) || last != (ISOWeek{Year: 2024, Week: 40}) {
		t.Errorf("Weeks = %s..%s, want 2024-W36..2024-W40", first, last)
	}
	if !w.ContainsWeek(ISOWeek{Year: 2024, Week: 38}) || w.ContainsWeek(ISOWeek{Year: 2024, Week: 41}) {
		t.Error("ContainsWeek disagrees with the window bounds")
	}
}

func TestNewWindowRejectsInverted(t *testing.T) {
	_, err := NewWindow(NewDate(2024, time.October, 6), NewDate(2024, time.September, 2), time.UTC)
	if err == nil {
		t.Fatal("expected error for end before start")
	}
}

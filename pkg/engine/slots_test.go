package engine

import (
	"testing"
	"time"
)

func TestDaySlotsAddInterval(t *testing.T) {
	emp := EmployeeKey{Shop: "A01", ResourceID: "R1"}
	day := date(time.September, 10)

	tests := []struct {
		name      string
		intervals [][2]time.Time
		want      float64
	}{
		{"one hour", [][2]time.Time{{sep(10, 9, 0), sep(10, 10, 0)}}, 1},
		{"overlap counted once", [][2]time.Time{
			{sep(10, 9, 0), sep(10, 10, 0)},
			{sep(10, 9, 30), sep(10, 10, 30)},
		}, 1.5},
		{"identical intervals", [][2]time.Time{
			{sep(10, 9, 0), sep(10, 10, 0)},
			{sep(10, 9, 0), sep(10, 10, 0)},
		}, 1},
		{"partial slot rounds up", [][2]time.Time{{sep(10, 9, 0), sep(10, 9, 7)}}, 10.0 / 60},
		{"inverted adds nothing", [][2]time.Time{{sep(10, 10, 0), sep(10, 9, 0)}}, 0},
		{"empty adds nothing", [][2]time.Time{{sep(10, 10, 0), sep(10, 10, 0)}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := make(DaySlots)
			for _, iv := range tt.intervals {
				d.AddInterval(emp, iv[0], iv[1])
			}
			got := d.Get(EmployeeDay{Employee: emp, Date: day}).Hours()
			if !approx(got, tt.want) {
				t.Fatalf("hours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaySlotsSpillPastMidnight(t *testing.T) {
	emp := EmployeeKey{Shop: "A01", ResourceID: "R1"}
	d := make(DaySlots)
	d.AddInterval(emp, sep(10, 23, 50), sep(11, 0, 10))

	first := d.Get(EmployeeDay{Employee: emp, Date: date(time.September, 10)})
	second := d.Get(EmployeeDay{Employee: emp, Date: date(time.September, 11)})
	if first.Count() != 2 || second.Count() != 2 {
		t.Fatalf("slots = %d + %d, want 2 + 2", first.Count(), second.Count())
	}
	if !first.Has(SlotsPerDay-1) || !second.Has(0) {
		t.Fatal("expected the last slot of the day and the first of the next")
	}
}

func TestSlotSetAlgebra(t *testing.T) {
	var a, b SlotSet
	a.SetRange(0, 10)
	b.SetRange(5, 15)

	if got := a.Or(b).Count(); got != 15 {
		t.Errorf("Or = %d, want 15", got)
	}
	if got := a.And(b).Count(); got != 5 {
		t.Errorf("And = %d, want 5", got)
	}
	if got := a.AndNot(b).Count(); got != 5 {
		t.Errorf("AndNot = %d, want 5", got)
	}
	if a.Count() != 10 {
		t.Error("set operations must not mutate the receiver")
	}
	if !a.AndNot(a).IsEmpty() {
		t.Error("a &^ a should be empty")
	}

	var full SlotSet
	full.SetRange(-5, SlotsPerDay+5)
	if full.Count() != SlotsPerDay || !approx(full.Hours(), 24) {
		t.Errorf("clamped full day = %d slots", full.Count())
	}
	if full.Has(SlotsPerDay) || full.Has(-1) {
		t.Error("Has out of range should be false")
	}
}

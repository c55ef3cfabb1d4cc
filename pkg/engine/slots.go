package engine

import (
	"math/bits"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

const (
	// SlotDuration is the discretization unit for overlap resolution.
	SlotDuration = 5 * time.Minute
	// SlotsPerDay is the number of slots in a 24h wall-clock day.
	SlotsPerDay = int(24 * time.Hour / SlotDuration)

	slotWords = (SlotsPerDay + 63) / 64
	slotHours = float64(SlotDuration) / float64(time.Hour)
)

// SlotSet is the set of 5-minute slots of one employee-day, one bit per
// slot. Set algebra on it replaces interval overlap arithmetic: a slot
// covered by two intervals is still one bit.
type SlotSet [slotWords]uint64

// SetRange marks slots [from, to).
func (s *SlotSet) SetRange(from, to int) {
	if from < 0 {
		from = 0
	}
	if to > SlotsPerDay {
		to = SlotsPerDay
	}
	for i := from; i < to; i++ {
		s[i/64] |= 1 << (uint(i) % 64)
	}
}

func (s SlotSet) Has(i int) bool {
	if i < 0 || i >= SlotsPerDay {
		return false
	}
	return s[i/64]&(1<<(uint(i)%64)) != 0
}

func (s SlotSet) Count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Hours converts the slot count to hours.
func (s SlotSet) Hours() float64 {
	return float64(s.Count()) * slotHours
}

func (s SlotSet) Or(o SlotSet) SlotSet {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

func (s SlotSet) And(o SlotSet) SlotSet {
	for i := range s {
		s[i] &= o[i]
	}
	return s
}

func (s SlotSet) AndNot(o SlotSet) SlotSet {
	for i := range s {
		s[i] &^= o[i]
	}
	return s
}

func (s SlotSet) IsEmpty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// DaySlots is a sparse collection of slot sets keyed by employee-day.
type DaySlots map[EmployeeDay]*SlotSet

// AddInterval discretizes [start, end) and marks its slots. The first slot
// is the one containing start; the interval covers ceil((end-start)/5m)
// consecutive slots, spilling into following days when it crosses midnight.
// Empty and inverted intervals add nothing.
func (d DaySlots) AddInterval(emp EmployeeKey, start, end time.Time) {
	if !end.After(start) {
		return
	}
	n := int((end.Sub(start) + SlotDuration - 1) / SlotDuration)
	day := timeutil.DateOf(start)
	first := (start.Hour()*60 + start.Minute()) / int(SlotDuration/time.Minute)
	for n > 0 {
		take := SlotsPerDay - first
		if take > n {
			take = n
		}
		d.get(EmployeeDay{Employee: emp, Date: day}).SetRange(first, first+take)
		n -= take
		first = 0
		day = day.AddDays(1)
	}
}

// Get returns the set for key, or an empty set.
func (d DaySlots) Get(key EmployeeDay) SlotSet {
	if s, ok := d[key]; ok {
		return *s
	}
	return SlotSet{}
}

func (d DaySlots) get(key EmployeeDay) *SlotSet {
	s, ok := d[key]
	if !ok {
		s = new(SlotSet)
		d[key] = s
	}
	return s
}

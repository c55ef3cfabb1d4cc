// Package pipeline runs the reconciliation as an explicit, ordered list of
// stages. Each stage declares the artifacts it needs and produces; the list
// is validated before anything is read.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Artifact names a value handed from one stage to the next.
type Artifact string

const (
	ArtShiftRecords     Artifact = "shift_records"
	ArtMemberships      Artifact = "memberships"
	ArtAppointments     Artifact = "appointments"
	ArtAbsenceRecords   Artifact = "absence_records"
	ArtRegions          Artifact = "regions"
	ArtHCMRecords       Artifact = "hcm_records"
	ArtIdentityMappings Artifact = "identity_mappings"
	ArtClockPunches     Artifact = "clock_punches"
	ArtShiftDays        Artifact = "shift_days"
	ArtAbsenceDays      Artifact = "absence_days"
	ArtLedger           Artifact = "ledger"
	ArtIdentityIndex    Artifact = "identity_index"
	ArtHCMResult        Artifact = "hcm_result"
	ArtClockResult      Artifact = "clock_result"
	ArtOutputs          Artifact = "outputs"
)

// Stage is one step of a run.
type Stage struct {
	Name     string
	Needs    []Artifact
	Produces []Artifact
	Run      func(ctx context.Context, s *State) error
}

// Sources locates every input. Empty HCM or ClockDir disables that
// reconciliation.
type Sources struct {
	Shifts       string
	Resources    string
	Appointments string
	Absences     string
	Regions      string
	HCM          string
	HCMMapping   string

	ClockDir       string
	ClockPattern   *regexp.Regexp
	ClockHeaderRow int
}

// Options configures one run.
type Options struct {
	Sources     Sources
	OutputDir   string
	Format      report.Format
	Window      timeutil.Window
	RunDate     timeutil.Date
	Policy      engine.AbsencePolicy
	WeeklyHours float64
	// Scheduling converts scheduling-system exports into report time.
	Scheduling timeutil.Normalizer
	// Local reads HR and clock exports, whose timestamps are already
	// report-local wall clock.
	Local timeutil.Normalizer
}

func (o Options) hcmEnabled() bool   { return o.Sources.HCM != "" }
func (o Options) clockEnabled() bool { return o.Sources.ClockDir != "" }

// State carries the artifacts of a run between stages.
type State struct {
	Options  Options
	Manifest *engine.Manifest

	ShiftRecords     []schema.ShiftRecord
	Memberships      []schema.Membership
	Appointments     []schema.AppointmentRecord
	AbsenceRecords   []schema.AbsenceRecord
	Regions          []schema.RegionMapping
	HCMRecords       []schema.HCMRecord
	IdentityMappings []schema.IdentityMapping
	ClockPunches     []schema.ClockPunch

	Shifts   engine.ShiftResult
	Absences []engine.AbsenceDay
	Ledger   engine.LedgerResult
	Identity *engine.IdentityIndex
	HCM      *engine.HCMResult
	Clock    *engine.ClockResult

	recorder   Recorder
	lastSource *schema.DropStats
}

// Recorder receives run telemetry.
type Recorder interface {
	ObserveStage(stage string, d time.Duration, err error)
	ObserveSource(source string, read int, dropped map[string]int)
	SetMissingShops(n int)
	RunSucceeded(at time.Time)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration, error) {}
func (nopRecorder) ObserveSource(string, int, map[string]int) {}
func (nopRecorder) SetMissingShops(int)                       {}
func (nopRecorder) RunSucceeded(time.Time)                    {}

// Validate checks that stage names are unique and that every artifact a
// stage needs is produced by an earlier one.
func Validate(stages []Stage) error {
	produced := make(map[Artifact]string)
	names := make(map[string]bool, len(stages))
	for _, st := range stages {
		if st.Name == "" || st.Run == nil {
			return fmt.Errorf("stage %q: missing name or run func", st.Name)
		}
		if names[st.Name] {
			return fmt.Errorf("stage %q declared twice", st.Name)
		}
		names[st.Name] = true
		for _, need := range st.Needs {
			if _, ok := produced[need]; !ok {
				return fmt.Errorf("stage %q needs %q, which no earlier stage produces", st.Name, need)
			}
		}
		for _, p := range st.Produces {
			if by, ok := produced[p]; ok {
				return fmt.Errorf("stage %q produces %q, already produced by %q", st.Name, p, by)
			}
			produced[p] = st.Name
		}
	}
	return nil
}

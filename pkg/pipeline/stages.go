package pipeline

import (
	"context"
	"fmt"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/schema"
)

// Stages returns the ordered stage list for opts. The HR and clock
// reconciliations are only included when their sources are configured.
func Stages(opts Options) []Stage {
	stages := []Stage{
		loadStage("load-shifts", ArtShiftRecords, opts.Sources.Shifts, parser.Options{},
			func(s *State, t *parser.Table) (schema.DropStats, error) {
				recs, stats, err := schema.Shifts(t, s.Options.Scheduling)
				s.ShiftRecords = recs
				return stats, err
			}),
		loadStage("load-resources", ArtMemberships, opts.Sources.Resources, parser.Options{},
			func(s *State, t *parser.Table) (schema.DropStats, error) {
				recs, stats, err := schema.Memberships(t, s.Options.Scheduling)
				s.Memberships = recs
				return stats, err
			}),
		loadStage("load-appointments", ArtAppointments, opts.Sources.Appointments, parser.Options{},
			func(s *State, t *parser.Table) (schema.DropStats, error) {
				recs, stats, err := schema.Appointments(t, s.Options.Scheduling)
				s.Appointments = recs
				return stats, err
			}),
		loadStage("load-absences", ArtAbsenceRecords, opts.Sources.Absences, parser.Options{},
			func(s *State, t *parser.Table) (schema.DropStats, error) {
				recs, stats, err := schema.Absences(t, s.Options.Scheduling)
				s.AbsenceRecords = recs
				return stats, err
			}),
		loadStage("load-regions", ArtRegions, opts.Sources.Regions, parser.Options{},
			func(s *State, t *parser.Table) (schema.DropStats, error) {
				recs, stats, err := schema.Regions(t)
				s.Regions = recs
				return stats, err
			}),
		{
			Name:     "normalize-shifts",
			Needs:    []Artifact{ArtShiftRecords, ArtMemberships},
			Produces: []Artifact{ArtShiftDays},
			Run:      runNormalizeShifts,
		},
		{
			Name:     "expand-absences",
			Needs:    []Artifact{ArtAbsenceRecords},
			Produces: []Artifact{ArtAbsenceDays},
			Run:      runExpandAbsences,
		},
		{
			Name:     "build-ledger",
			Needs:    []Artifact{ArtShiftDays, ArtAbsenceDays, ArtAppointments, ArtRegions},
			Produces: []Artifact{ArtLedger},
			Run:      runBuildLedger,
		},
	}

	outputsNeed := []Artifact{ArtLedger}
	if opts.hcmEnabled() || opts.clockEnabled() {
		stages = append(stages, Stage{
			Name:     "load-identity-mappings",
			Produces: []Artifact{ArtIdentityMappings},
			Run:      runLoadIdentityMappings,
		}, Stage{
			Name:     "build-identity-index",
			Needs:    []Artifact{ArtIdentityMappings, ArtLedger},
			Produces: []Artifact{ArtIdentityIndex},
			Run:      runBuildIdentityIndex,
		})
	}
	if opts.hcmEnabled() {
		stages = append(stages,
			loadStage("load-hcm", ArtHCMRecords, opts.Sources.HCM, parser.Options{},
				func(s *State, t *parser.Table) (schema.DropStats, error) {
					recs, stats, err := schema.HCM(t)
					s.HCMRecords = recs
					return stats, err
				}),
			Stage{
				Name:     "reconcile-hcm",
				Needs:    []Artifact{ArtHCMRecords, ArtIdentityIndex, ArtLedger, ArtRegions},
				Produces: []Artifact{ArtHCMResult},
				Run:      runReconcileHCM,
			})
		outputsNeed = append(outputsNeed, ArtHCMResult)
	}
	if opts.clockEnabled() {
		stages = append(stages,
			Stage{
				Name:     "load-clock",
				Produces: []Artifact{ArtClockPunches},
				Run:      runLoadClock,
			},
			Stage{
				Name:     "reconcile-clock",
				Needs:    []Artifact{ArtClockPunches, ArtIdentityIndex, ArtLedger, ArtRegions},
				Produces: []Artifact{ArtClockResult},
				Run:      runReconcileClock,
			})
		outputsNeed = append(outputsNeed, ArtClockResult)
	}

	return append(stages, Stage{
		Name:     "write-outputs",
		Needs:    outputsNeed,
		Produces: []Artifact{ArtOutputs},
		Run:      runWriteOutputs,
	})
}

// loadStage reads one source file and decodes it into the state.
func loadStage(name string, produces Artifact, path string, opts parser.Options, decode func(*State, *parser.Table) (schema.DropStats, error)) Stage {
	return Stage{
		Name:     name,
		Produces: []Artifact{produces},
		Run: func(_ context.Context, s *State) error {
			t, err := parser.Load(path, opts)
			if err != nil {
				return err
			}
			stats, err := decode(s, t)
			if err != nil {
				return err
			}
			s.recordSource(stats, t)
			return nil
		},
	}
}

func (s *State) recordSource(stats schema.DropStats, t *parser.Table) {
	s.Manifest.Sources = append(s.Manifest.Sources, stats)
	s.lastSource = &s.Manifest.Sources[len(s.Manifest.Sources)-1]
	s.recorder.ObserveSource(stats.Source, stats.Read, stats.Dropped)
	for _, w := range t.Warnings {
		s.Manifest.Warnings = append(s.Manifest.Warnings, fmt.Sprintf("%s row %d: %s", t.Source, w.Row, w.Message))
	}
}

func runLoadIdentityMappings(_ context.Context, s *State) error {
	path := s.Options.Sources.HCMMapping
	if path == "" {
		s.Manifest.Warnings = append(s.Manifest.Warnings, "no identity cross-mapping configured; clock rows cannot be placed in shops")
		return nil
	}
	t, err := parser.Load(path, parser.Options{})
	if err != nil {
		return err
	}
	recs, stats, err := schema.IdentityMappings(t)
	if err != nil {
		return err
	}
	s.IdentityMappings = recs
	s.recordSource(stats, t)
	return nil
}

func runLoadClock(_ context.Context, s *State) error {
	src := s.Options.Sources
	t, err := parser.LoadMatching(src.ClockDir, src.ClockPattern, parser.Options{HeaderRow: src.ClockHeaderRow})
	if err != nil {
		return err
	}
	recs, stats, err := schema.ClockPunches(t, s.Options.Local)
	if err != nil {
		return err
	}
	s.ClockPunches = recs
	s.recordSource(stats, t)
	return nil
}

func runNormalizeShifts(_ context.Context, s *State) error {
	s.Shifts = engine.NormalizeShifts(s.ShiftRecords, s.Memberships, s.Options.Window)
	s.Manifest.Shifts = s.Shifts.Stats
	return nil
}

func runExpandAbsences(_ context.Context, s *State) error {
	if err := s.Options.Policy.Validate(); err != nil {
		return err
	}
	days, stats := engine.ExpandAbsences(s.AbsenceRecords, s.Options.Policy, s.Options.Window)
	s.Absences = days
	s.Manifest.Absences = stats
	return nil
}

func runBuildLedger(_ context.Context, s *State) error {
	s.Ledger = engine.BuildLedger(engine.LedgerInput{
		Window:       s.Options.Window,
		Shifts:       s.Shifts.Days,
		Absences:     s.Absences,
		Appointments: s.Appointments,
		Regions:      s.Regions,
	})
	s.Manifest.Ledger = s.Ledger.Stats
	s.Manifest.LedgerRows = len(s.Ledger.Rows)
	s.recorder.SetMissingShops(len(s.Ledger.Stats.MissingShopCodes))
	return nil
}

func runBuildIdentityIndex(_ context.Context, s *State) error {
	s.Identity = engine.BuildIdentityIndex(s.IdentityMappings, s.Ledger.Employees)
	return nil
}

func runReconcileHCM(_ context.Context, s *State) error {
	res := engine.ReconcileHCM(engine.HCMInput{
		Window:      s.Options.Window,
		Employees:   s.Ledger.Employees,
		HCM:         s.HCMRecords,
		Identity:    s.Identity,
		Regions:     s.Regions,
		WeeklyHours: s.Options.WeeklyHours,
	})
	s.HCM = &res
	s.Manifest.HCM = &res.Stats
	return nil
}

func runReconcileClock(_ context.Context, s *State) error {
	res := engine.ReconcileClock(engine.ClockInput{
		Window:    s.Options.Window,
		Punches:   s.ClockPunches,
		Employees: s.Ledger.Employees,
		Identity:  s.Identity,
		Regions:   s.Regions,
	})
	s.Clock = &res
	s.Manifest.Clock = &res.Stats
	return nil
}

type output struct {
	kind   string
	prefix string
	sheet  report.Sheet
}

// runWriteOutputs renders every result file. The manifest is written by the
// runner once this stage has succeeded.
func runWriteOutputs(ctx context.Context, s *State) error {
	format := s.Options.Format
	if format == "" {
		format = report.FormatXLSX
	}

	outputs := []output{
		{"ledger", report.PrefixLedger, report.LedgerSheet(s.Ledger.Rows)},
		{"employees", report.PrefixEmployees, report.EmployeeSheet(s.Ledger.Employees)},
	}
	if s.HCM != nil {
		outputs = append(outputs, output{"hcm", report.PrefixHCM, report.HCMSheet(s.HCM.Rows)})
	}
	if s.Clock != nil {
		outputs = append(outputs, output{"clock", report.PrefixClock, report.ClockSheet(s.Clock.Rows)})
	}

	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := outputPath(s.Options.OutputDir, out.prefix, s.Options.RunDate, string(format))
		if err := report.Write(path, format, out.sheet); err != nil {
			return fmt.Errorf("write %s: %w", out.kind, err)
		}
		s.Manifest.Outputs[out.kind] = path
	}
	return nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Runner executes a stage list.
type Runner struct {
	Logger   *slog.Logger
	Recorder Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run validates and executes Stages(opts). Nothing is written unless every
// stage succeeds; the manifest is written last.
func (r *Runner) Run(ctx context.Context, opts Options) (*State, error) {
	return r.RunStages(ctx, opts, Stages(opts))
}

// RunStages executes an explicit stage list.
func (r *Runner) RunStages(ctx context.Context, opts Options, stages []Stage) (*State, error) {
	if err := Validate(stages); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := r.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	started := r.now()
	state := &State{
		Options:  opts,
		Manifest: engine.NewManifest(started, opts.RunDate, opts.Window, opts.Policy),
		recorder: rec,
	}
	log = log.With("run_id", state.Manifest.RunID.String())
	log.Info("pipeline starting", "window", opts.Window.String(), "stages", len(stages))

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		state.lastSource = nil
		t0 := r.now()
		err := st.Run(ctx, state)
		d := r.now().Sub(t0)
		rec.ObserveStage(st.Name, d, err)
		if err != nil {
			log.Error("stage failed", "stage", st.Name, "duration", d, "err", err)
			return state, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		log.Info("stage done", append([]any{"stage", st.Name, "duration", d}, stageAttrs(st.Name, state)...)...)
	}

	logDrops(log, state)
	sum := report.MergeResults(state.Ledger, state.HCM, state.Clock)
	log.Info("run summary",
		"shop_days", sum.TotalShopDays, "employees", sum.TotalEmployees,
		"open", sum.Status.Open, "full", sum.Status.Full, "closed", sum.Status.Closed,
		"hcm_alerts", sum.HCM.Alert, "clock_alerts", sum.Clock.Alert, "clock_nc", sum.ClockNC)
	if codes := state.Ledger.Stats.MissingShopCodes; len(codes) > 0 {
		log.Warn("missing shop codes", "count", len(codes), "codes", codes)
	}

	state.Manifest.FinishedAt = r.now()
	if err := writeManifest(state); err != nil {
		return state, err
	}
	rec.RunSucceeded(state.Manifest.FinishedAt)
	log.Info("pipeline finished", "duration", state.Manifest.FinishedAt.Sub(started), "ledger_rows", state.Manifest.LedgerRows)
	return state, nil
}

// stageAttrs picks the row counts worth logging after a stage.
func stageAttrs(name string, s *State) []any {
	switch name {
	case "normalize-shifts":
		st := s.Shifts.Stats
		return []any{"input", st.Input, "kept", st.Kept, "employee_days", len(s.Shifts.Days)}
	case "expand-absences":
		return []any{"input", s.Manifest.Absences.Input, "days", s.Manifest.Absences.Days}
	case "build-ledger":
		st := s.Ledger.Stats
		return []any{"rows", len(s.Ledger.Rows), "employees", len(s.Ledger.Employees),
			"duplicate_appointments", st.DuplicateAppointments, "unmapped_rows", st.UnmappedRows}
	case "reconcile-hcm":
		st := s.HCM.Stats
		return []any{"matched", st.Matched, "scheduling_only", st.SchedulingOnly, "hcm_only", st.HCMOnly,
			"unresolved", st.Identity.Unresolved}
	case "reconcile-clock":
		st := s.Clock.Stats
		return []any{"matched", st.Matched, "clock_only", st.ClockOnly, "unmapped", st.Unmapped,
			"nc_days", st.Punches.NCDays}
	case "write-outputs":
		return []any{"files", len(s.Manifest.Outputs)}
	}
	if src := s.lastSource; src != nil {
		return []any{"source", src.Source, "read", src.Read, "kept", src.Kept}
	}
	return nil
}

func logDrops(log *slog.Logger, s *State) {
	for _, src := range s.Manifest.Sources {
		if n := src.DroppedTotal(); n > 0 {
			log.Warn("rows dropped", "source", src.Source, "count", n, "reasons", src.Reasons())
		}
	}
}

func writeManifest(s *State) error {
	data, err := engine.SerializeManifest(s.Manifest)
	if err != nil {
		return err
	}
	path := outputPath(s.Options.OutputDir, report.PrefixManifest, s.Options.RunDate, "json")
	if err := report.WriteFile(path, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func outputPath(dir, prefix string, date timeutil.Date, ext string) string {
	return filepath.Join(dir, report.DatedName(prefix, date, ext))
}

// Command openslots runs the daily slot reconciliation and writes the dated
// report files the dashboard reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/alisaleks/Agenda-App/internal/config"
	"github.com/alisaleks/Agenda-App/internal/metrics"
	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/pipeline"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

func main() {
	runDate := flag.String("date", "", "run date YYYY-MM-DD (default today in REPORT_TIMEZONE)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	opts, err := buildOptions(cfg, *runDate, time.Now())
	if err != nil {
		logger.Error("invalid run options", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	runner := pipeline.Runner{Logger: logger, Recorder: m}
	_, runErr := runner.Run(ctx, opts)
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "err", err)
		}
	}
	if runErr != nil {
		logger.Error("pipeline failed", "err", runErr)
		os.Exit(1)
	}
}

// buildOptions turns configuration into run options. The window is the
// month window of the run date unless WINDOW_START/WINDOW_END override it.
func buildOptions(cfg config.Config, runDate string, now time.Time) (pipeline.Options, error) {
	scheduling, err := timeutil.NewNormalizer(cfg.SourceTimezone, cfg.ReportTimezone)
	if err != nil {
		return pipeline.Options{}, err
	}
	local := timeutil.Normalizer{Source: scheduling.Report, Report: scheduling.Report}
	loc := scheduling.Location()

	day := timeutil.DateOf(now.In(loc))
	if runDate != "" {
		if day, err = timeutil.ParseDate(runDate); err != nil {
			return pipeline.Options{}, err
		}
	}

	window := timeutil.MonthWindow(day.Midnight(loc))
	if cfg.WindowStart != "" {
		start, err := timeutil.ParseDate(cfg.WindowStart)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("WINDOW_START: %w", err)
		}
		end, err := timeutil.ParseDate(cfg.WindowEnd)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("WINDOW_END: %w", err)
		}
		if window, err = timeutil.NewWindow(start, end, loc); err != nil {
			return pipeline.Options{}, err
		}
	}

	format, err := report.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return pipeline.Options{}, err
	}
	policy := engine.AbsencePolicy{
		WorkdayStartHour:  cfg.WorkdayStartHour,
		WorkdayEndHour:    cfg.WorkdayEndHour,
		EveningCutoffHour: cfg.EveningCutoffHour,
		MaxDailyHours:     cfg.MaxDailyAbsenceHours,
	}
	if err := policy.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	sources := pipeline.Sources{
		Shifts:         cfg.InputPath(cfg.ShiftsFile),
		Resources:      cfg.InputPath(cfg.ResourcesFile),
		Appointments:   cfg.InputPath(cfg.AppointmentFile),
		Absences:       cfg.InputPath(cfg.AbsencesFile),
		Regions:        cfg.InputPath(cfg.RegionFile),
		HCM:            cfg.InputPath(cfg.HCMFile),
		HCMMapping:     cfg.InputPath(cfg.HCMMappingFile),
		ClockDir:       cfg.InputPath(cfg.ClockDir),
		ClockHeaderRow: cfg.ClockHeaderRow,
	}
	if sources.ClockPattern, err = regexp.Compile(cfg.ClockPattern); err != nil {
		return pipeline.Options{}, fmt.Errorf("CLOCK_PATTERN: %w", err)
	}

	return pipeline.Options{
		Sources:     sources,
		OutputDir:   cfg.OutputDir,
		Format:      format,
		Window:      window,
		RunDate:     day,
		Policy:      policy,
		WeeklyHours: cfg.HCMWeeklyHours,
		Scheduling:  scheduling,
		Local:       local,
	}, nil
}

package main

import (
	"testing"
	"time"

	"github.com/alisaleks/Agenda-App/internal/config"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

func baseConfig() config.Config {
	return config.Config{
		InputDir:             "in",
		ShiftsFile:           "shifts.xlsx",
		ClockPattern:         `.*\.xlsx`,
		OutputFormat:         "csv",
		ReportTimezone:       "Europe/Madrid",
		SourceTimezone:       "UTC",
		WorkdayStartHour:     7,
		WorkdayEndHour:       19,
		EveningCutoffHour:    20,
		MaxDailyAbsenceHours: 8,
		HCMWeeklyHours:       40,
	}
}

func TestBuildOptionsMonthWindow(t *testing.T) {
	now := time.Date(2024, 9, 10, 22, 30, 0, 0, time.UTC) // already Sep 11 in Madrid
	opts, err := buildOptions(baseConfig(), "", now)
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}
	if want := (timeutil.Date{Year: 2024, Month: time.September, Day: 11}); opts.RunDate != want {
		t.Errorf("run date = %s, want %s", opts.RunDate, want)
	}
	if got := opts.Window.String(); got != "2024-09-02..2024-10-06" {
		t.Errorf("window = %s", got)
	}
	if opts.Format != report.FormatCSV {
		t.Errorf("format = %q", opts.Format)
	}
	if opts.Sources.Shifts != "in/shifts.xlsx" || opts.Sources.HCM != "" || opts.Sources.ClockDir != "" {
		t.Errorf("sources = %+v", opts.Sources)
	}
	if opts.Local.Source != opts.Scheduling.Report {
		t.Error("HR and clock exports should be read as report-local time")
	}
}

func TestBuildOptionsOverrides(t *testing.T) {
	cfg := baseConfig()
	cfg.WindowStart, cfg.WindowEnd = "2024-09-09", "2024-09-15"
	opts, err := buildOptions(cfg, "2024-09-12", time.Now())
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}
	if opts.RunDate != (timeutil.Date{Year: 2024, Month: time.September, Day: 12}) {
		t.Errorf("run date = %s", opts.RunDate)
	}
	if got := opts.Window.String(); got != "2024-09-09..2024-09-15" {
		t.Errorf("window = %s", got)
	}

	if _, err := buildOptions(cfg, "12/09/2024", time.Now()); err == nil {
		t.Error("buildOptions() accepted a malformed run date")
	}
	cfg.WindowEnd = "2024-09-01"
	if _, err := buildOptions(cfg, "2024-09-12", time.Now()); err == nil {
		t.Error("buildOptions() accepted an inverted window")
	}
}

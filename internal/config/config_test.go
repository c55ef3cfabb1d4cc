package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReportTimezone != "Europe/Madrid" || cfg.OutputFormat != "xlsx" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.WorkdayStartHour != 7 || cfg.WorkdayEndHour != 19 || cfg.EveningCutoffHour != 20 || cfg.MaxDailyAbsenceHours != 8 {
		t.Errorf("absence policy defaults = %d %d %d %v", cfg.WorkdayStartHour, cfg.WorkdayEndHour, cfg.EveningCutoffHour, cfg.MaxDailyAbsenceHours)
	}
	if cfg.HCMFile != "" || cfg.ClockDir != "" {
		t.Error("optional reconciliations enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OUTPUT_FORMAT", "csv")
	t.Setenv("HTTP_READ_TIMEOUT", "30")
	t.Setenv("HTTP_IDLE_TIMEOUT", "2m")
	t.Setenv("HTTP_WRITE_TIMEOUT", "soon")
	t.Setenv("HCM_WEEKLY_HOURS", "37.5")
	t.Setenv("CLOCK_HEADER_ROW", "x")
	t.Setenv("HCM_FILE", "hcm.xlsx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputFormat != "csv" || cfg.HCMFile != "hcm.xlsx" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.IdleTimeout != 2*time.Minute || cfg.WriteTimeout != 15*time.Second {
		t.Errorf("timeouts = %v %v %v", cfg.ReadTimeout, cfg.IdleTimeout, cfg.WriteTimeout)
	}
	if cfg.HCMWeeklyHours != 37.5 {
		t.Errorf("weekly hours = %v", cfg.HCMWeeklyHours)
	}
	if cfg.ClockHeaderRow != 5 {
		t.Errorf("unparseable int should fall back, got %d", cfg.ClockHeaderRow)
	}
}

func validConfig() Config {
	return Config{
		ReportTimezone:       "Europe/Madrid",
		SourceTimezone:       "UTC",
		WorkdayStartHour:     7,
		WorkdayEndHour:       19,
		EveningCutoffHour:    20,
		MaxDailyAbsenceHours: 8,
		HCMWeeklyHours:       40,
		ClockPattern:         `.*\.xlsx`,
		OutputFormat:         "xlsx",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"timezone", func(c *Config) { c.ReportTimezone = "Mars/Olympus" }, "unknown timezone"},
		{"workday", func(c *Config) { c.WorkdayStartHour = 19 }, "WORKDAY_START_HOUR"},
		{"cutoff", func(c *Config) { c.EveningCutoffHour = 25 }, "EVENING_CUTOFF_HOUR"},
		{"absence cap", func(c *Config) { c.MaxDailyAbsenceHours = 0 }, "MAX_DAILY_ABSENCE_HOURS"},
		{"weekly hours", func(c *Config) { c.HCMWeeklyHours = -1 }, "HCM_WEEKLY_HOURS"},
		{"header row", func(c *Config) { c.ClockHeaderRow = -1 }, "CLOCK_HEADER_ROW"},
		{"pattern", func(c *Config) { c.ClockPattern = "(" }, "CLOCK_PATTERN"},
		{"format", func(c *Config) { c.OutputFormat = "pdf" }, "OUTPUT_FORMAT"},
		{"half window", func(c *Config) { c.WindowStart = "2024-09-01" }, "WINDOW_START"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInputPath(t *testing.T) {
	cfg := Config{InputDir: "data"}
	abs, err := filepath.Abs("shifts.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"":            "",
		"shifts.xlsx": filepath.Join("data", "shifts.xlsx"),
		abs:           abs,
	}
	for in, want := range tests {
		if got := cfg.InputPath(in); got != want {
			t.Errorf("InputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

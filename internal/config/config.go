package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration shared by the pipeline and
// the dashboard.
type Config struct {
	Env string

	InputDir        string
	ShiftsFile      string
	ResourcesFile   string
	AppointmentFile string
	AbsencesFile    string
	RegionFile      string
	HCMFile         string
	HCMMappingFile  string
	ClockDir        string
	ClockPattern    string
	ClockHeaderRow  int

	OutputDir       string
	OutputFormat    string
	MetricsTextfile string

	ReportTimezone string
	SourceTimezone string
	// WindowStart and WindowEnd override the month window (YYYY-MM-DD).
	WindowStart string
	WindowEnd   string

	WorkdayStartHour     int
	WorkdayEndHour       int
	EveningCutoffHour    int
	MaxDailyAbsenceHours float64
	HCMWeeklyHours       float64

	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimit       int
	AllowedOrigins  string
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                  getEnv("APP_ENV", "development"),
		InputDir:             getEnv("OPENSLOTS_INPUT_DIR", "data"),
		ShiftsFile:           getEnv("SHIFTS_FILE", "SFshifts_query.xlsx"),
		ResourcesFile:        getEnv("RESOURCES_FILE", "resource_query.csv"),
		AppointmentFile:      getEnv("APPOINTMENTS_FILE", "Appointments.xlsx"),
		AbsencesFile:         getEnv("ABSENCES_FILE", "absences.csv"),
		RegionFile:           getEnv("REGION_FILE", "regionmapping.xlsx"),
		HCMFile:              os.Getenv("HCM_FILE"),
		HCMMappingFile:       os.Getenv("HCM_MAPPING_FILE"),
		ClockDir:             os.Getenv("CLOCK_DIR"),
		ClockPattern:         getEnv("CLOCK_PATTERN", `1039963987_.*_1_1_ *\.xlsx`),
		ClockHeaderRow:       getInt("CLOCK_HEADER_ROW", 5),
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		OutputFormat:         getEnv("OUTPUT_FORMAT", "xlsx"),
		MetricsTextfile:      os.Getenv("METRICS_TEXTFILE"),
		ReportTimezone:       getEnv("REPORT_TIMEZONE", "Europe/Madrid"),
		SourceTimezone:       getEnv("SOURCE_TIMEZONE", "UTC"),
		WindowStart:          os.Getenv("WINDOW_START"),
		WindowEnd:            os.Getenv("WINDOW_END"),
		WorkdayStartHour:     getInt("WORKDAY_START_HOUR", 7),
		WorkdayEndHour:       getInt("WORKDAY_END_HOUR", 19),
		EveningCutoffHour:    getInt("EVENING_CUTOFF_HOUR", 20),
		MaxDailyAbsenceHours: getFloat("MAX_DAILY_ABSENCE_HOURS", 8),
		HCMWeeklyHours:       getFloat("HCM_WEEKLY_HOURS", 40),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ReadTimeout:          getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:         getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:          getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:      getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimit:            getInt("HTTP_RATE_LIMIT", 200),
		AllowedOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no run could succeed with.
func (c Config) Validate() error {
	for _, tz := range []string{c.ReportTimezone, c.SourceTimezone} {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
	}
	if c.WorkdayStartHour < 0 || c.WorkdayEndHour > 24 || c.WorkdayStartHour >= c.WorkdayEndHour {
		return fmt.Errorf("WORKDAY_START_HOUR %d must be before WORKDAY_END_HOUR %d", c.WorkdayStartHour, c.WorkdayEndHour)
	}
	if c.EveningCutoffHour < 0 || c.EveningCutoffHour > 24 {
		return fmt.Errorf("EVENING_CUTOFF_HOUR %d out of range", c.EveningCutoffHour)
	}
	if c.MaxDailyAbsenceHours <= 0 {
		return errors.New("MAX_DAILY_ABSENCE_HOURS must be positive")
	}
	if c.HCMWeeklyHours <= 0 {
		return errors.New("HCM_WEEKLY_HOURS must be positive")
	}
	if c.ClockHeaderRow < 0 {
		return errors.New("CLOCK_HEADER_ROW must not be negative")
	}
	if _, err := regexp.Compile(c.ClockPattern); err != nil {
		return fmt.Errorf("CLOCK_PATTERN: %w", err)
	}
	if c.OutputFormat != "xlsx" && c.OutputFormat != "csv" {
		return fmt.Errorf("OUTPUT_FORMAT %q must be xlsx or csv", c.OutputFormat)
	}
	if (c.WindowStart == "") != (c.WindowEnd == "") {
		return errors.New("WINDOW_START and WINDOW_END must be set together")
	}
	return nil
}

// InputPath resolves a source file name against the input directory.
// Absolute names are returned unchanged; empty names stay empty.
func (c Config) InputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.InputDir, name)
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

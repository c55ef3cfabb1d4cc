package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

const (
	shiftsCSV = `Shift[ShiftNumber],Shop[GT_ShopCode__c],Service Resource[Name],Shift[ServiceResourceId],Shift[StartTime],Shift[EndTime],Shift[LastModifiedDate],Service Resource[GT_PersonalNumber__c]
S1,A01,Ana Garcia,R1,2024-09-10 09:00:00,2024-09-10 17:00:00,2024-09-01 08:00:00,100
S2,A01,Ana Garcia,R1,soon,2024-09-10 17:00:00,2024-09-01 08:00:00,100
S3,Z99,Luis Perez,R9,2024-09-11 09:00:00,2024-09-11 13:00:00,2024-09-01 08:00:00,900
`
	resourcesCSV = `Shop[GT_ShopCode__c],Service Territory Member[ServiceResourceId],Service Territory Member[EffectiveStartDate],Service Territory Member[EffectiveEndDate],Service Resource[IsActive]
A01,R1,2024-01-01,,true
Z99,R9,2024-01-01,,true
`
	appointmentsCSV = `Service Appointment[GT_ShopCode__c],Service Appointment[GT_ServiceResource__c],Service Resource[Name],Service Appointment[SchedStartTime],Service Appointment[SchedEndTime],Service Appointment[LastModifiedDate]
A01,R1,Ana Garcia,2024-09-10 10:00:00,2024-09-10 11:00:00,2024-09-05 08:00:00
`
	absencesCSV = `Resource Absence[Start],Resource Absence[End],User[GT_StoreCode__c],Service Resource[Id]
2024-09-10 15:00:00,2024-09-10 17:00:00,A01,R1
`
	regionsCSV = `CODE,REGION,AREA,DESCR,SYM
A01,NORTE,N1,Shop One,Y
`
)

type recorder struct {
	stages    []string
	failed    []string
	sources   map[string]int
	missing   int
	succeeded bool
}

func (r *recorder) ObserveStage(stage string, _ time.Duration, err error) {
	r.stages = append(r.stages, stage)
	if err != nil {
		r.failed = append(r.failed, stage)
	}
}

func (r *recorder) ObserveSource(source string, read int, _ map[string]int) {
	if r.sources == nil {
		r.sources = make(map[string]int)
	}
	r.sources[source] = read
}

func (r *recorder) SetMissingShops(n int)  { r.missing = n }
func (r *recorder) RunSucceeded(time.Time) { r.succeeded = true }

func writeInputs(t *testing.T, dir string) Sources {
	t.Helper()
	files := map[string]string{
		"shifts.csv":       shiftsCSV,
		"resources.csv":    resourcesCSV,
		"appointments.csv": appointmentsCSV,
		"absences.csv":     absencesCSV,
		"regions.csv":      regionsCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return Sources{
		Shifts:       filepath.Join(dir, "shifts.csv"),
		Resources:    filepath.Join(dir, "resources.csv"),
		Appointments: filepath.Join(dir, "appointments.csv"),
		Absences:     filepath.Join(dir, "absences.csv"),
		Regions:      filepath.Join(dir, "regions.csv"),
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	in := t.TempDir()
	window, err := timeutil.NewWindow(
		timeutil.Date{Year: 2024, Month: time.September, Day: 9},
		timeutil.Date{Year: 2024, Month: time.September, Day: 15},
		time.UTC,
	)
	if err != nil {
		t.Fatal(err)
	}
	utc := timeutil.Normalizer{Source: time.UTC, Report: time.UTC}
	return Options{
		Sources:   writeInputs(t, in),
		OutputDir: t.TempDir(),
		Format:    report.FormatCSV,
		Window:    window,
		RunDate:   timeutil.Date{Year: 2024, Month: time.September, Day: 10},
		Policy: engine.AbsencePolicy{
			WorkdayStartHour:  7,
			WorkdayEndHour:    19,
			EveningCutoffHour: 20,
			MaxDailyHours:     8,
		},
		WeeklyHours: 40,
		Scheduling:  utc,
		Local:       utc,
	}
}

func quietRunner(rec Recorder) *Runner {
	return &Runner{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Recorder: rec,
		Now:      func() time.Time { return time.Date(2024, 9, 10, 6, 0, 0, 0, time.UTC) },
	}
}

func TestRunWritesOutputs(t *testing.T) {
	opts := testOptions(t)
	rec := &recorder{}

	state, err := quietRunner(rec).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !rec.succeeded {
		t.Error("RunSucceeded not recorded")
	}
	if len(rec.failed) != 0 {
		t.Errorf("failed stages = %v", rec.failed)
	}
	if rec.sources["shifts"] != 3 {
		t.Errorf("shift rows read = %d, want 3", rec.sources["shifts"])
	}
	if rec.missing != 1 {
		t.Errorf("missing shops = %d, want 1", rec.missing)
	}

	// A01 every store day Mon-Sat plus the unmapped Z99 day.
	if got := len(state.Ledger.Rows); got != 7 {
		t.Fatalf("ledger rows = %d, want 7", got)
	}

	ledgerPath := filepath.Join(opts.OutputDir, "shiftslots_2024-09-10.csv")
	if state.Manifest.Outputs["ledger"] != ledgerPath {
		t.Errorf("ledger output = %q, want %q", state.Manifest.Outputs["ledger"], ledgerPath)
	}
	rows, err := report.LoadLedger(ledgerPath)
	if err != nil {
		t.Fatalf("LoadLedger() error = %v", err)
	}
	var found bool
	for _, r := range rows {
		if r.Shop != "A01" || r.Date != (timeutil.Date{Year: 2024, Month: time.September, Day: 10}) {
			continue
		}
		found = true
		if r.TotalHours != 8 || r.BookedHours != 1 || r.BlockedHours != 2 || r.OpenHours != 5 {
			t.Errorf("A01 2024-09-10 = total %v booked %v blocked %v open %v, want 8/1/2/5",
				r.TotalHours, r.BookedHours, r.BlockedHours, r.OpenHours)
		}
		if r.Region != "NORTE" {
			t.Errorf("region = %q", r.Region)
		}
	}
	if !found {
		t.Fatal("A01 2024-09-10 missing from written ledger")
	}

	if _, err := os.Stat(filepath.Join(opts.OutputDir, "hcpshiftslots_2024-09-10.csv")); err != nil {
		t.Errorf("employee output: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "manifest_2024-09-10.json"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	m, err := engine.DeserializeManifest(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.RunID != state.Manifest.RunID {
		t.Errorf("manifest run id = %s, want %s", m.RunID, state.Manifest.RunID)
	}
	if len(m.Sources) != 5 {
		t.Fatalf("manifest sources = %d, want 5", len(m.Sources))
	}
	if shifts := m.Sources[0]; shifts.Source != "shifts" || shifts.Kept != 2 || shifts.Dropped["unparseable interval"] != 1 {
		t.Errorf("shift source stats = %+v", shifts)
	}
	if m.HCM != nil || m.Clock != nil {
		t.Error("manifest carries reconciliations that were not run")
	}
	if len(m.Ledger.MissingShopCodes) != 1 || m.Ledger.MissingShopCodes[0] != "Z99" {
		t.Errorf("missing shop codes = %v", m.Ledger.MissingShopCodes)
	}
	if m.LedgerRows != 7 {
		t.Errorf("manifest ledger rows = %d", m.LedgerRows)
	}
}

func TestRunMissingSourceWritesNothing(t *testing.T) {
	opts := testOptions(t)
	opts.Sources.Regions = filepath.Join(t.TempDir(), "nope.csv")
	rec := &recorder{}

	_, err := quietRunner(rec).Run(context.Background(), opts)
	if !errors.Is(err, parser.ErrMissingSource) {
		t.Fatalf("Run() error = %v, want ErrMissingSource", err)
	}
	if rec.succeeded {
		t.Error("failed run recorded as succeeded")
	}
	if len(rec.failed) != 1 || rec.failed[0] != "load-regions" {
		t.Errorf("failed stages = %v", rec.failed)
	}
	entries, err := os.ReadDir(opts.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries after a failed run", len(entries))
	}
}

func TestRunStagesRejectsInvalidList(t *testing.T) {
	stages := []Stage{{Name: "x", Needs: []Artifact{ArtLedger}, Run: noop}}
	if _, err := quietRunner(nil).RunStages(context.Background(), Options{}, stages); err == nil {
		t.Fatal("RunStages() accepted a stage with an unmet need")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	stages := []Stage{
		{Name: "cancel", Run: func(context.Context, *State) error { cancel(); return nil }},
		{Name: "after", Run: func(context.Context, *State) error { ran = true; return nil }},
	}
	_, err := quietRunner(nil).RunStages(ctx, Options{}, stages)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunStages() error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("stage ran after cancellation")
	}
}

func TestRunWarnsWithoutIdentityMapping(t *testing.T) {
	opts := testOptions(t)
	st := &State{Options: opts, Manifest: engine.NewManifest(time.Now(), opts.RunDate, opts.Window, opts.Policy), recorder: nopRecorder{}}
	if err := runLoadIdentityMappings(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if len(st.Manifest.Warnings) != 1 {
		t.Errorf("warnings = %v", st.Manifest.Warnings)
	}
}

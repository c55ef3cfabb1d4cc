package pipeline

import (
	"context"
	"regexp"
	"strings"
	"testing"
)

func noop(context.Context, *State) error { return nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		stages  []Stage
		wantErr string
	}{
		{
			name: "ordered",
			stages: []Stage{
				{Name: "a", Produces: []Artifact{ArtShiftRecords}, Run: noop},
				{Name: "b", Needs: []Artifact{ArtShiftRecords}, Produces: []Artifact{ArtShiftDays}, Run: noop},
			},
		},
		{
			name: "need before produce",
			stages: []Stage{
				{Name: "b", Needs: []Artifact{ArtShiftRecords}, Run: noop},
				{Name: "a", Produces: []Artifact{ArtShiftRecords}, Run: noop},
			},
			wantErr: "no earlier stage produces",
		},
		{
			name: "duplicate name",
			stages: []Stage{
				{Name: "a", Run: noop},
				{Name: "a", Run: noop},
			},
			wantErr: "declared twice",
		},
		{
			name: "produced twice",
			stages: []Stage{
				{Name: "a", Produces: []Artifact{ArtLedger}, Run: noop},
				{Name: "b", Produces: []Artifact{ArtLedger}, Run: noop},
			},
			wantErr: `already produced by "a"`,
		},
		{
			name:    "missing run",
			stages:  []Stage{{Name: "a"}},
			wantErr: "missing name or run func",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.stages)
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

func stageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	return names
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func TestStagesCoreOnly(t *testing.T) {
	stages := Stages(Options{})
	if err := Validate(stages); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	names := stageNames(stages)
	for _, optional := range []string{"load-identity-mappings", "reconcile-hcm", "reconcile-clock"} {
		if contains(names, optional) {
			t.Errorf("stage %q included without its source", optional)
		}
	}
	if last := names[len(names)-1]; last != "write-outputs" {
		t.Errorf("last stage = %q, want write-outputs", last)
	}
}

func TestStagesWithReconciliations(t *testing.T) {
	opts := Options{Sources: Sources{
		HCM:          "hcm.csv",
		ClockDir:     "clock",
		ClockPattern: regexp.MustCompile(`.*\.csv`),
	}}
	stages := Stages(opts)
	if err := Validate(stages); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	names := stageNames(stages)
	for _, want := range []string{"build-identity-index", "load-hcm", "reconcile-hcm", "load-clock", "reconcile-clock"} {
		if !contains(names, want) {
			t.Errorf("stage %q missing from %v", want, names)
		}
	}

	last := stages[len(stages)-1]
	for _, need := range []Artifact{ArtLedger, ArtHCMResult, ArtClockResult} {
		found := false
		for _, n := range last.Needs {
			found = found || n == need
		}
		if !found {
			t.Errorf("write-outputs does not need %q", need)
		}
	}
}

func TestStagesClockOnly(t *testing.T) {
	stages := Stages(Options{Sources: Sources{ClockDir: "clock"}})
	if err := Validate(stages); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	names := stageNames(stages)
	if !contains(names, "build-identity-index") || contains(names, "reconcile-hcm") {
		t.Errorf("stages = %v", names)
	}
}

package engine

import (
	"testing"

	"github.com/alisaleks/Agenda-App/pkg/schema"
)

func staff(shop, pn, name string) EmployeeRow {
	return EmployeeRow{Shop: shop, PersonalNumber: pn, ResourceName: name}
}

func TestResolveHCMCascade(t *testing.T) {
	employees := []EmployeeRow{
		staff("A01", "100", "Ana Garcia Lopez"),
		staff("A01", "101", "Pedro Ruiz"),
		staff("B02", "200", "Maria Sanz"),
		staff("B02", "201", "Maria Sanx"),
	}
	mappings := []schema.IdentityMapping{
		{HCMKey: "A01_H1", PersonalNumber: "100", ResourceName: "Ana Garcia Lopez"},
		{HCMKey: "A01_H9", PersonalNumber: ""},
	}
	idx := BuildIdentityIndex(mappings, employees)

	tests := []struct {
		name      string
		rec       schema.HCMRecord
		wantPN    string
		wantMatch MatchType
	}{
		{"mapping table", schema.HCMRecord{Shop: "A01", PersonNumber: "H1", EmployeeName: "Ana Garcia Lopez"}, "100", MatchMapping},
		{"same personal number", schema.HCMRecord{Shop: "A01", PersonNumber: "101", EmployeeName: "Pedro Ruiz"}, "101", MatchPersonalNumber},
		{"fuzzy name", schema.HCMRecord{Shop: "A01", PersonNumber: "H7", EmployeeName: "Lopes, Ana Garcia"}, "100", MatchFuzzyName},
		{"fuzzy name needs the same shop", schema.HCMRecord{Shop: "B02", PersonNumber: "H7", EmployeeName: "Ana Garcia Lopez"}, "H7", MatchUnresolved},
		{"ambiguous keeps HR id", schema.HCMRecord{Shop: "B02", PersonNumber: "H8", EmployeeName: "Maria Sanw"}, "H8", MatchFuzzyAmbiguous},
		{"mapping without personal number falls through", schema.HCMRecord{Shop: "A01", PersonNumber: "H9", EmployeeName: "Nadie"}, "H9", MatchUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := idx.ResolveHCM(tt.rec)
			if res.PersonalNumber != tt.wantPN || res.MatchType != tt.wantMatch {
				t.Fatalf("got %s/%s, want %s/%s", res.PersonalNumber, res.MatchType, tt.wantPN, tt.wantMatch)
			}
		})
	}
}

func TestResolveHCMReportsNameConflict(t *testing.T) {
	idx := BuildIdentityIndex(
		[]schema.IdentityMapping{{HCMKey: "A01_H1", PersonalNumber: "100", ResourceName: "Ana Garcia"}},
		[]EmployeeRow{staff("A01", "100", "Ana Garcia")},
	)
	res := idx.ResolveHCM(schema.HCMRecord{Shop: "A01", PersonNumber: "H1", EmployeeName: "Beatriz Mora"})
	if len(res.Conflicts) != 1 || res.Conflicts[0].Resolution != resolutionSchedulingWins {
		t.Fatalf("conflicts = %+v", res.Conflicts)
	}
}

func TestBuildIdentityIndexFirstWins(t *testing.T) {
	idx := BuildIdentityIndex([]schema.IdentityMapping{
		{HCMKey: "A01_H1", PersonalNumber: "100", SchedulingKey: "A01_100", Active: true},
		{HCMKey: "A01_H1", PersonalNumber: "999", SchedulingKey: "B02_999", Active: true},
		{HCMKey: "B02_H2", PersonalNumber: "100", SchedulingKey: "B02_100", Active: true},
		{HCMKey: "B02_H3", PersonalNumber: "300", SchedulingKey: "B02_300", Active: false},
	}, nil)

	if idx.Stats.DuplicateKeys != 1 || idx.ByHCMKey["A01_H1"].PersonalNumber != "100" {
		t.Errorf("duplicate handling: %+v", idx.Stats)
	}
	if shop, _, ok := idx.ActiveSchedulingShop("100"); !ok || shop != "A01" {
		t.Errorf("active shop for 100 = %q %v, want A01", shop, ok)
	}
	if _, _, ok := idx.ActiveSchedulingShop("300"); ok {
		t.Error("inactive mapping must not place clock rows")
	}
}

func TestSimilarity(t *testing.T) {
	if d := levenshteinDistance("kitten", "sitting"); d != 3 {
		t.Errorf("distance = %d, want 3", d)
	}
	if d := levenshteinDistance("", "abc"); d != 3 {
		t.Errorf("distance to empty = %d, want 3", d)
	}
	if s := similarity("", ""); s != 1 {
		t.Errorf("similarity of empties = %v, want 1", s)
	}
	if s := similarity("maria sanz", "maria sanx"); !approx(s, 0.9) {
		t.Errorf("similarity = %v, want 0.9", s)
	}
}

func TestDetectConflicts(t *testing.T) {
	if c := DetectConflicts("GARCÍA, Ana", "ana garcia"); c != nil {
		t.Errorf("normalized names should match: %+v", c)
	}
	if c := DetectConflicts("", "ana garcia"); c != nil {
		t.Errorf("missing side is not a conflict: %+v", c)
	}
	if c := DetectConflicts("Ana Garcia", "Ana Martin"); len(c) != 1 {
		t.Errorf("expected one conflict, got %+v", c)
	}
}

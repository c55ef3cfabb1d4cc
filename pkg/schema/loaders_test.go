package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

var utc = timeutil.Normalizer{Source: time.UTC, Report: time.UTC}

func table(headers []string, rows ...[]string) *parser.Table {
	t := &parser.Table{Source: "test.csv", Headers: headers}
	for _, row := range rows {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func TestResolveMissingColumn(t *testing.T) {
	_, _, err := Regions(table([]string{"CODE", "REGION", "AREA"}))
	var se *parser.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want SchemaError", err)
	}
	if se.Column != "DESCR" || se.Source != "test.csv" {
		t.Fatalf("schema error = %+v", se)
	}
}

func TestResolveNormalizedHeaders(t *testing.T) {
	cols, err := RegionSource.Resolve(table([]string{" code", "Region", "area", "Descr"}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cols["code"] != " code" || cols["name"] != "Descr" {
		t.Fatalf("columns = %v", cols)
	}
	if _, ok := cols["symphony"]; ok {
		t.Fatal("optional column should be absent")
	}
}

func TestShifts(t *testing.T) {
	headers := []string{
		"Shift[ShiftNumber]", "Shop[GT_ShopCode__c]", "Service Resource[Name]", "Shift[ServiceResourceId]",
		"Shift[StartTime]", "Shift[EndTime]", "Shift[LastModifiedDate]", "Service Resource[GT_PersonalNumber__c]",
	}
	records, stats, err := Shifts(table(headers,
		[]string{"S1", "101.0", "Ana Garcia", "R1", "2024-09-10T09:00:00Z", "2024-09-10T17:00:00Z", "2024-09-01T08:00:00Z", "100.0"},
		[]string{"S2", "101", "Ana Garcia", "R1", "ayer", "2024-09-10T17:00:00Z", "2024-09-01T08:00:00Z", "100"},
		[]string{"S3", "101", "Ana Garcia", "R1", "2024-09-11T09:00:00Z", "2024-09-11T17:00:00Z", "", "100"},
		[]string{"S4", "", "Ana Garcia", "R1", "2024-09-12T09:00:00Z", "2024-09-12T17:00:00Z", "2024-09-01T08:00:00Z", "100"},
	), utc)
	if err != nil {
		t.Fatalf("Shifts: %v", err)
	}
	if len(records) != 1 || stats.Kept != 1 || stats.Read != 4 {
		t.Fatalf("kept %d of %d", stats.Kept, stats.Read)
	}
	want := map[string]int{"unparseable interval": 1, "unparseable last-modified": 1, "missing employee key": 1}
	for reason, n := range want {
		if stats.Dropped[reason] != n {
			t.Errorf("dropped[%s] = %d, want %d", reason, stats.Dropped[reason], n)
		}
	}
	if stats.DroppedTotal() != 3 {
		t.Errorf("dropped total = %d, want 3", stats.DroppedTotal())
	}
	r := records[0]
	if r.Shop != "101" || r.PersonalNumber != "100" || r.DurationHours() != 8 {
		t.Errorf("record = %+v", r)
	}
}

func TestMemberships(t *testing.T) {
	headers := []string{
		"Shop[GT_ShopCode__c]", "Service Territory Member[ServiceResourceId]",
		"Service Territory Member[EffectiveStartDate]", "Service Territory Member[EffectiveEndDate]", "Service Resource[IsActive]",
	}
	records, _, err := Memberships(table(headers,
		[]string{"A01", "R1", "2024-01-01", "", "True"},
		[]string{"A01", "R2", "", "", "False"},
	), utc)
	if err != nil {
		t.Fatalf("Memberships: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].ResourceActive || !records[0].EffectiveEnd.IsZero() {
		t.Errorf("open-ended active membership = %+v", records[0])
	}
	if records[1].ResourceActive || !records[1].EffectiveStart.IsZero() {
		t.Errorf("inactive membership = %+v", records[1])
	}
}

func TestAppointmentsNormalizeCategory(t *testing.T) {
	headers := []string{
		"Service Appointment[GT_ShopCode__c]", "Service Appointment[GT_ServiceResource__c]", "Service Resource[Name]",
		"Service Appointment[SchedStartTime]", "Service Appointment[SchedEndTime]", "Service Appointment[LastModifiedDate]",
		"Service Appointment[GT_Macrocategory__c]",
	}
	records, _, err := Appointments(table(headers,
		[]string{"A01", "R1", "Ana", "10/09/2024 10:00", "10/09/2024 11:00", "01/09/2024 08:00", "Fitting"},
	), utc)
	if err != nil {
		t.Fatalf("Appointments: %v", err)
	}
	if len(records) != 1 || records[0].Category != "Pre-Sales" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Start.Day() != 10 || records[0].Start.Month() != time.September {
		t.Errorf("day-first start = %s", records[0].Start)
	}
}

func TestAbsencesAliasHeaders(t *testing.T) {
	headers := []string{"Start", "End", "Resource.RelatedRecord.GT_StoreCode__c", "Service Resource[Id]", "Type"}
	records, _, err := Absences(table(headers,
		[]string{"2024-09-10 09:00:00", "2024-09-12 18:00:00", "A01", "R1", "Vacaciones"},
	), utc)
	if err != nil {
		t.Fatalf("Absences: %v", err)
	}
	if len(records) != 1 || records[0].Shop != "A01" || records[0].Type != "Vacaciones" {
		t.Fatalf("records = %+v", records)
	}
}

func TestRegions(t *testing.T) {
	records, stats, err := Regions(table([]string{"CODE", "REGION", "AREA", "DESCR", "SYM"},
		[]string{"A01", "NORTE", "N1", "Bilbao Centro", "y"},
		[]string{"A01", "SUR", "S1", "Duplicate", "Y"},
		[]string{"", "SUR", "S1", "No code", "Y"},
		[]string{"C03", "SUR", "S2", "Cadiz", "N"},
	))
	if err != nil {
		t.Fatalf("Regions: %v", err)
	}
	if len(records) != 2 || stats.Dropped["duplicate code"] != 1 || stats.Dropped["missing code"] != 1 {
		t.Fatalf("records = %+v stats = %+v", records, stats)
	}
	if !records[0].Live() || records[0].Region != "NORTE" {
		t.Errorf("first row should win and be live: %+v", records[0])
	}
	if records[1].InScope() {
		t.Error("SYM=N shop should be out of scope")
	}
}

func TestHCM(t *testing.T) {
	headers := []string{
		"Shop[Shop Code - Descr]", "Unique Employee[Employee Full Name]", "Unique Employee[Employee Person Number]",
		"Calendar[ISO Week]", "Calendar[ISO Year]", "[Audiologist_FTE]",
	}
	records, stats, err := HCM(table(headers,
		[]string{"A01 - Bilbao Centro", "García, Ana", "5001.0", "37", "2024", "0,8"},
		[]string{"A01 - Bilbao Centro", "Ruiz, Pedro", "5002", "54", "2024", "1"},
		[]string{"A01 - Bilbao Centro", "Ruiz, Pedro", "5002", "37", "2024", "n/a"},
		[]string{"A01 - Bilbao Centro", "Ruiz, Pedro", "", "37", "2024", "1"},
	))
	if err != nil {
		t.Fatalf("HCM: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %+v", records)
	}
	r := records[0]
	if r.Shop != "A01" || r.PersonNumber != "5001" || r.FTE != 0.8 || r.Week != (timeutil.ISOWeek{Year: 2024, Week: 37}) {
		t.Errorf("record = %+v", r)
	}
	for _, reason := range []string{"unparseable ISO week", "unparseable FTE", "missing employee key"} {
		if stats.Dropped[reason] != 1 {
			t.Errorf("dropped[%s] = %d, want 1", reason, stats.Dropped[reason])
		}
	}
}

func TestIdentityMappings(t *testing.T) {
	records, _, err := IdentityMappings(table(
		[]string{"PersonalNumber HCM", "PersonalNumber", "ServiceResourceName SF", "PersonalNumber SF"},
		[]string{"A01_5001", "100.0", "Ana Garcia", "A01_100"},
		[]string{"", "101", "Pedro Ruiz", "A01_101"},
	))
	if err != nil {
		t.Fatalf("IdentityMappings: %v", err)
	}
	if len(records) != 1 || !records[0].Active || records[0].PersonalNumber != "100" {
		t.Fatalf("records = %+v", records)
	}

	records, _, err = IdentityMappings(table(
		[]string{"PersonalNumber HCM", "PersonalNumber", "ServiceResourceName SF", "Active"},
		[]string{"A01_5001", "100", "Ana Garcia", "0"},
	))
	if err != nil {
		t.Fatalf("IdentityMappings: %v", err)
	}
	if records[0].Active {
		t.Error("explicit inactive flag ignored")
	}
}

func TestClockPunches(t *testing.T) {
	headers := []string{"ID RH", "Fecha y hora fichaje/declarac.", "Nombre unidad org.", "filename"}
	records, stats, err := ClockPunches(table(headers,
		[]string{"100.0", "10/09/2024 09:00:00", "ES - SHOP - Bilbao Centro", "1039963987_a_1_1_ .xlsx"},
		[]string{"nan", "10/09/2024 09:00:00", "", ""},
		[]string{"100", "sin fichaje", "", ""},
	), utc)
	if err != nil {
		t.Fatalf("ClockPunches: %v", err)
	}
	if len(records) != 1 || stats.Dropped["missing HR id"] != 1 || stats.Dropped["unparseable timestamp"] != 1 {
		t.Fatalf("records = %+v stats = %+v", records, stats)
	}
	p := records[0]
	if p.HRID != "100" || p.ShopName != "Bilbao Centro" || p.Timestamp.Hour() != 9 {
		t.Errorf("punch = %+v", p)
	}
}

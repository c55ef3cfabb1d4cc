package schema

import (
	"strings"

	"github.com/alisaleks/Agenda-App/pkg/parser"
)

// SourceSchema describes how one export's columns map onto canonical fields.
// Each field lists the header names it is known by; the first is the
// canonical export header and is the one named in schema errors.
type SourceSchema struct {
	Name     string
	Fields   map[string][]string
	Required []string
}

// ShiftSource is the scheduling system's shift export.
var ShiftSource = SourceSchema{
	Name: "shifts",
	Fields: map[string][]string{
		"shiftNumber":    {"Shift[ShiftNumber]"},
		"label":          {"Shift[Label]"},
		"resourceName":   {"Service Resource[Name]", "GT_ServiceResource__r.Name"},
		"shop":           {"Shop[GT_ShopCode__c]", "GT_ShopCode__c"},
		"role":           {"Service Resource[GT_Role__c]"},
		"start":          {"Shift[StartTime]"},
		"end":            {"Shift[EndTime]"},
		"resourceId":     {"Shift[ServiceResourceId]"},
		"country":        {"Shop[GT_CountryCode__c]"},
		"shopName":       {"Shop[Name]"},
		"lastModified":   {"Shift[LastModifiedDate]"},
		"personalNumber": {"Service Resource[GT_PersonalNumber__c]"},
		"storeType":      {"Shop[GT_StoreType__c]"},
		"areaCode":       {"Shop[GT_AreaCode__c]"},
	},
	Required: []string{"shop", "resourceName", "resourceId", "start", "end", "lastModified"},
}

// MembershipSource is the resource-territory membership export.
var MembershipSource = SourceSchema{
	Name: "resources",
	Fields: map[string][]string{
		"shop":           {"Shop[GT_ShopCode__c]", "GT_ShopCode__c"},
		"resourceId":     {"Service Territory Member[ServiceResourceId]"},
		"resourceName":   {"Service Resource[Name]"},
		"personalNumber": {"Service Resource[GT_PersonalNumber__c]", "PersonalNumber"},
		"role":           {"Service Resource[GT_Role__c]"},
		"effectiveStart": {"Service Territory Member[EffectiveStartDate]"},
		"effectiveEnd":   {"Service Territory Member[EffectiveEndDate]"},
		"active":         {"Service Resource[IsActive]"},
	},
	Required: []string{"shop", "resourceId", "effectiveStart", "effectiveEnd", "active"},
}

// AppointmentSource is the service appointment export.
var AppointmentSource = SourceSchema{
	Name: "appointments",
	Fields: map[string][]string{
		"number":       {"Service Appointment[AppointmentNumber]"},
		"country":      {"Shop[GT_CountryCode__c]"},
		"shop":         {"Service Appointment[GT_ShopCode__c]"},
		"resourceId":   {"Service Appointment[GT_ServiceResource__c]"},
		"resourceName": {"Service Resource[Name]"},
		"account":      {"Service Appointment[GT_AccountNameConcatenated__c]"},
		"category":     {"Service Appointment[GT_Macrocategory__c]"},
		"status":       {"Service Appointment[Status]"},
		"start":        {"Service Appointment[SchedStartTime]"},
		"end":          {"Service Appointment[SchedEndTime]"},
		"lastModified": {"Service Appointment[LastModifiedDate]"},
	},
	Required: []string{"shop", "resourceId", "resourceName", "start", "end", "lastModified"},
}

// AbsenceSource is the resource absence export.
var AbsenceSource = SourceSchema{
	Name: "absences",
	Fields: map[string][]string{
		"number":         {"Resource Absence[AbsenceNumber]", "AbsenceNumber"},
		"start":          {"Resource Absence[Start]", "Start"},
		"end":            {"Resource Absence[End]", "End"},
		"resourceName":   {"Service Resource[Name]", "Resource.Name"},
		"personalNumber": {"Service Resource[GT_PersonalNumber__c]", "Resource.GT_PersonalNumber__c"},
		"shop":           {"User[GT_StoreCode__c]", "Resource.RelatedRecord.GT_StoreCode__c"},
		"resourceId":     {"Service Resource[Id]"},
		"type":           {"Resource Absence[Type]", "Type"},
	},
	Required: []string{"start", "end", "shop", "resourceId"},
}

// RegionSource is the static shop -> region/area mapping table.
var RegionSource = SourceSchema{
	Name: "regionmapping",
	Fields: map[string][]string{
		"code":     {"CODE"},
		"region":   {"REGION"},
		"area":     {"AREA"},
		"name":     {"DESCR"},
		"symphony": {"SYM"},
	},
	Required: []string{"code", "region", "area", "name"},
}

// HCMSource is the HR system's weekly FTE export.
var HCMSource = SourceSchema{
	Name: "hcm",
	Fields: map[string][]string{
		"shopDescr":    {"Shop[Shop Code - Descr]"},
		"employeeName": {"Unique Employee[Employee Full Name]"},
		"personNumber": {"Unique Employee[Employee Person Number]"},
		"isoWeek":      {"Calendar[ISO Week]"},
		"isoYear":      {"Calendar[ISO Year]"},
		"fte":          {"[Audiologist_FTE]", "Audiologist_FTE"},
	},
	Required: []string{"shopDescr", "personNumber", "isoWeek", "isoYear", "fte"},
}

// IdentitySource is the HR <-> scheduling identifier cross-mapping table.
var IdentitySource = SourceSchema{
	Name: "hcm_mapping",
	Fields: map[string][]string{
		"hcmKey":         {"PersonalNumber HCM"},
		"personalNumber": {"PersonalNumber"},
		"resourceName":   {"ServiceResourceName SF"},
		"schedulingKey":  {"PersonalNumber SF"},
		"active":         {"Active"},
	},
	Required: []string{"hcmKey", "personalNumber", "resourceName"},
}

// ClockSource is the physical time-clock punch export.
var ClockSource = SourceSchema{
	Name: "clock",
	Fields: map[string][]string{
		"hrId":      {"ID RH"},
		"timestamp": {"Fecha y hora fichaje/declarac.", "Fecha y hora fichaje"},
		"shopName":  {"Nombre unidad org."},
		"file":      {"filename"},
	},
	Required: []string{"hrId", "timestamp"},
}

// Columns maps canonical fields to the headers actually present in a table.
type Columns map[string]string

// Resolve matches the schema's fields against the table headers: an exact
// header match first, then a normalized (case, spacing and punctuation
// insensitive) match. A required field with no header is a SchemaError.
func (s SourceSchema) Resolve(t *parser.Table) (Columns, error) {
	byNormalized := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		byNormalized[normalizeHeader(h)] = h
	}

	cols := make(Columns, len(s.Fields))
	for field, names := range s.Fields {
		for _, name := range names {
			if t.Has(name) {
				cols[field] = name
				break
			}
			if h, ok := byNormalized[normalizeHeader(name)]; ok {
				cols[field] = h
				break
			}
		}
	}

	for _, field := range s.Required {
		if _, ok := cols[field]; !ok {
			source := t.Source
			if source == "" {
				source = s.Name
			}
			return nil, &parser.SchemaError{Source: source, Column: s.Fields[field][0]}
		}
	}
	return cols, nil
}

// Get returns the trimmed value of a canonical field, empty when the column
// is absent.
func (c Columns) Get(record map[string]string, field string) string {
	h, ok := c[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(record[h])
}

// normalizeHeader lowercases a header and strips everything but letters and digits.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

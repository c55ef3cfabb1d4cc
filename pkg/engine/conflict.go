package engine

import "github.com/alisaleks/Agenda-App/pkg/schema"

// FieldConflict is a disagreement between the HR system and the scheduling
// system about one employee attribute. The scheduling value always wins.
type FieldConflict struct {
	Field           string `json:"field"`
	HCMValue        string `json:"hcmValue"`
	SchedulingValue string `json:"schedulingValue"`
	Resolution      string `json:"resolution"`
}

const resolutionSchedulingWins = "scheduling_wins"

// DetectConflicts compares the names both systems hold for a resolved
// employee. Names are compared after normalization, so accents, case and
// "Last, First" ordering never count as conflicts.
func DetectConflicts(hcmName, schedulingName string) []FieldConflict {
	if hcmName == "" || schedulingName == "" {
		return nil
	}
	if schema.NormalizeName(hcmName) == schema.NormalizeName(schedulingName) {
		return nil
	}
	return []FieldConflict{{
		Field:           "resourceName",
		HCMValue:        hcmName,
		SchedulingValue: schedulingName,
		Resolution:      resolutionSchedulingWins,
	}}
}

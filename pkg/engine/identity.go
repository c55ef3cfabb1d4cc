package engine

import (
	"sort"

	"github.com/alisaleks/Agenda-App/pkg/schema"
)

// MatchType records which step of the identity cascade resolved an employee.
type MatchType string

const (
	MatchMapping        MatchType = "mapping"
	MatchPersonalNumber MatchType = "personal_number"
	MatchFuzzyName      MatchType = "fuzzy_name"
	MatchFuzzyAmbiguous MatchType = "fuzzy_ambiguous"
	MatchUnresolved     MatchType = "unresolved"
)

// SchedulingEmployee is a scheduling-system identity seen in the ledger.
type SchedulingEmployee struct {
	Shop           string `json:"shop"`
	PersonalNumber string `json:"personalNumber"`
	ResourceName   string `json:"resourceName"`
	NormalizedName string `json:"normalizedName"`
}

// IdentityIndex provides lookup of scheduling identities by the keys the
// other systems carry.
type IdentityIndex struct {
	// ByHCMKey indexes the cross-mapping table by HR "<shop>_<pn>" key.
	ByHCMKey map[string]schema.IdentityMapping
	// ActiveByPersonalNumber indexes active cross-mappings by scheduling
	// personal number, the identifier clock exports carry.
	ActiveByPersonalNumber map[string]schema.IdentityMapping
	// ByShopPN indexes scheduling employees by "<shop>_<pn>".
	ByShopPN map[string]SchedulingEmployee
	// ByShop lists scheduling employees per shop for fuzzy name matching.
	ByShop map[string][]SchedulingEmployee
	Stats  IndexStats
}

// IndexStats summarizes an IdentityIndex.
type IndexStats struct {
	Mappings        int `json:"mappings"`
	ActiveMappings  int `json:"activeMappings"`
	DuplicateKeys   int `json:"duplicateKeys"`
	SchedulingStaff int `json:"schedulingStaff"`
}

// BuildIdentityIndex indexes the cross-mapping table and the employees of
// the reconciled ledger. The first occurrence of a key wins.
func BuildIdentityIndex(mappings []schema.IdentityMapping, employees []EmployeeRow) *IdentityIndex {
	idx := &IdentityIndex{
		ByHCMKey:               make(map[string]schema.IdentityMapping, len(mappings)),
		ActiveByPersonalNumber: make(map[string]schema.IdentityMapping, len(mappings)),
		ByShopPN:               make(map[string]SchedulingEmployee),
		ByShop:                 make(map[string][]SchedulingEmployee),
	}

	for _, m := range mappings {
		if _, ok := idx.ByHCMKey[m.HCMKey]; ok {
			idx.Stats.DuplicateKeys++
		} else {
			idx.ByHCMKey[m.HCMKey] = m
		}
		if m.Active && m.PersonalNumber != "" {
			if _, ok := idx.ActiveByPersonalNumber[m.PersonalNumber]; !ok {
				idx.ActiveByPersonalNumber[m.PersonalNumber] = m
				idx.Stats.ActiveMappings++
			}
		}
	}
	idx.Stats.Mappings = len(mappings)

	for _, e := range employees {
		if e.PersonalNumber == "" {
			continue
		}
		key := e.SchedulingKey()
		if _, ok := idx.ByShopPN[key]; ok {
			continue
		}
		emp := SchedulingEmployee{
			Shop:           e.Shop,
			PersonalNumber: e.PersonalNumber,
			ResourceName:   e.ResourceName,
			NormalizedName: schema.NormalizeName(e.ResourceName),
		}
		idx.ByShopPN[key] = emp
		idx.ByShop[e.Shop] = append(idx.ByShop[e.Shop], emp)
	}
	idx.Stats.SchedulingStaff = len(idx.ByShopPN)
	return idx
}

// Resolution is the outcome of resolving an HR employee to a scheduling
// personal number.
type Resolution struct {
	PersonalNumber string          `json:"personalNumber"`
	ResourceName   string          `json:"resourceName"`
	MatchType      MatchType       `json:"matchType"`
	Conflicts      []FieldConflict `json:"conflicts,omitempty"`
}

// IdentityStats counts resolutions per cascade step.
type IdentityStats struct {
	Mapping        int `json:"mapping"`
	PersonalNumber int `json:"personalNumber"`
	FuzzyName      int `json:"fuzzyName"`
	Ambiguous      int `json:"ambiguous"`
	Unresolved     int `json:"unresolved"`
	Conflicts      int `json:"conflicts"`
}

func (s *IdentityStats) count(r Resolution) {
	switch r.MatchType {
	case MatchMapping:
		s.Mapping++
	case MatchPersonalNumber:
		s.PersonalNumber++
	case MatchFuzzyName:
		s.FuzzyName++
	case MatchFuzzyAmbiguous:
		s.Ambiguous++
	default:
		s.Unresolved++
	}
	s.Conflicts += len(r.Conflicts)
}

// ResolveHCM runs the identity cascade for one HR row:
//  1. the cross-mapping table, by "<shop>_<person number>"
//  2. a scheduling employee with the same personal number in the same shop
//  3. a fuzzy normalized-name match within the shop (similarity >= 0.85 and
//     a 0.10 lead over the runner-up)
//  4. unresolved: the HR person number and name are kept as they are
//
// An ambiguous fuzzy match is not trusted and keeps the HR identifiers.
func (idx *IdentityIndex) ResolveHCM(rec schema.HCMRecord) Resolution {
	key := schema.SchedulingKey(rec.Shop, rec.PersonNumber)

	if m, ok := idx.ByHCMKey[key]; ok && m.PersonalNumber != "" {
		name := m.ResourceName
		if name == "" {
			name = rec.EmployeeName
		}
		res := Resolution{PersonalNumber: m.PersonalNumber, ResourceName: name, MatchType: MatchMapping}
		if emp, ok := idx.ByShopPN[schema.SchedulingKey(rec.Shop, m.PersonalNumber)]; ok {
			res.Conflicts = DetectConflicts(rec.EmployeeName, emp.ResourceName)
		}
		return res
	}

	if emp, ok := idx.ByShopPN[key]; ok {
		return Resolution{
			PersonalNumber: emp.PersonalNumber,
			ResourceName:   emp.ResourceName,
			MatchType:      MatchPersonalNumber,
			Conflicts:      DetectConflicts(rec.EmployeeName, emp.ResourceName),
		}
	}

	unresolved := Resolution{PersonalNumber: rec.PersonNumber, ResourceName: rec.EmployeeName, MatchType: MatchUnresolved}
	emp, matchType := idx.fuzzyMatch(rec.Shop, schema.NormalizeName(rec.EmployeeName))
	switch matchType {
	case MatchFuzzyName:
		return Resolution{PersonalNumber: emp.PersonalNumber, ResourceName: emp.ResourceName, MatchType: MatchFuzzyName}
	case MatchFuzzyAmbiguous:
		unresolved.MatchType = MatchFuzzyAmbiguous
	}
	return unresolved
}

// fuzzyMatch scores every scheduling employee of the shop against name.
func (idx *IdentityIndex) fuzzyMatch(shop, name string) (SchedulingEmployee, MatchType) {
	if name == "" {
		return SchedulingEmployee{}, MatchUnresolved
	}

	type scored struct {
		emp   SchedulingEmployee
		score float64
	}
	var candidates []scored
	for _, e := range idx.ByShop[shop] {
		if s := similarity(name, e.NormalizedName); s >= fuzzyMatchThreshold {
			candidates = append(candidates, scored{emp: e, score: s})
		}
	}
	if len(candidates) == 0 {
		return SchedulingEmployee{}, MatchUnresolved
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) == 1 || candidates[0].score-candidates[1].score >= fuzzyAmbiguityGap {
		return candidates[0].emp, MatchFuzzyName
	}
	return candidates[0].emp, MatchFuzzyAmbiguous
}

// ActiveSchedulingShop returns the shop and scheduling name an active
// cross-mapping assigns to a personal number.
func (idx *IdentityIndex) ActiveSchedulingShop(personalNumber string) (shop, name string, ok bool) {
	m, ok := idx.ActiveByPersonalNumber[personalNumber]
	if !ok || m.SchedulingKey == "" {
		return "", "", false
	}
	shop, _ = schema.SplitSchedulingKey(m.SchedulingKey)
	return shop, m.ResourceName, true
}

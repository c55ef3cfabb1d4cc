package engine

import (
	"fmt"

	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// EmployeeKey identifies a service resource working in a shop. The same
// person moving between shops yields two keys.
type EmployeeKey struct {
	Shop       string `json:"shop"`
	ResourceID string `json:"resourceId"`
}

func (k EmployeeKey) String() string { return k.Shop + "/" + k.ResourceID }

// EmployeeDay keys every per-employee daily aggregate.
type EmployeeDay struct {
	Employee EmployeeKey
	Date     timeutil.Date
}

// ShopDay keys one ledger row.
type ShopDay struct {
	Shop string
	Date timeutil.Date
}

// WeekKey keys the HR-system reconciliation: shop, scheduling personal number
// and ISO week.
type WeekKey struct {
	Shop           string           `json:"shop"`
	PersonalNumber string           `json:"personalNumber"`
	Week           timeutil.ISOWeek `json:"week"`
}

// String renders the legacy "<shop>_<pn>_<year>_<week>" composite key for
// display only; joins use the struct.
func (k WeekKey) String() string {
	return fmt.Sprintf("%s_%s_%d_%d", k.Shop, k.PersonalNumber, k.Week.Year, k.Week.Week)
}

// PersonDay keys the clock reconciliation: personal number and calendar day.
type PersonDay struct {
	PersonalNumber string        `json:"personalNumber"`
	Date           timeutil.Date `json:"date"`
}

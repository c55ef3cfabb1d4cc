package engine

import "math"

// DeltaStatus grades a reconciliation delta between two hour sources.
type DeltaStatus string

const (
	DeltaOK    DeltaStatus = "OK"
	DeltaWarn  DeltaStatus = "WARN"
	DeltaAlert DeltaStatus = "ALERT"
)

// DeltaTolerance is the largest absolute delta, in hours, still graded WARN.
const DeltaTolerance = 3.0

// deltaEpsilon absorbs float noise from slot arithmetic.
const deltaEpsilon = 1e-9

// ClassifyDelta grades a delta:
//   - |Δ| = 0 -> OK
//   - 0 < |Δ| <= 3h -> WARN
//   - |Δ| > 3h -> ALERT
func ClassifyDelta(delta float64) DeltaStatus {
	abs := math.Abs(delta)
	switch {
	case abs < deltaEpsilon:
		return DeltaOK
	case abs <= DeltaTolerance+deltaEpsilon:
		return DeltaWarn
	default:
		return DeltaAlert
	}
}

// LedgerStatus describes a shop-day's capacity.
type LedgerStatus string

const (
	StatusClosed LedgerStatus = "CLOSED"
	StatusFull   LedgerStatus = "FULL"
	StatusOpen   LedgerStatus = "OPEN"
)

// ClassifyLedger returns CLOSED when nothing was scheduled, FULL when no open
// hours remain and OPEN otherwise.
func ClassifyLedger(total, open float64) LedgerStatus {
	switch {
	case total <= deltaEpsilon:
		return StatusClosed
	case open <= deltaEpsilon:
		return StatusFull
	default:
		return StatusOpen
	}
}

// BlockedBand buckets the blocked-hours percentage.
type BlockedBand string

const (
	BlockedNone    BlockedBand = "NONE"
	BlockedPartial BlockedBand = "PARTIAL"
	BlockedHigh    BlockedBand = "HIGH"
)

func ClassifyBlocked(pct float64) BlockedBand {
	switch {
	case pct <= deltaEpsilon:
		return BlockedNone
	case pct <= 50:
		return BlockedPartial
	default:
		return BlockedHigh
	}
}

// Percent returns num/den*100, or 0 when den is 0.
func Percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// nonNegative clamps float noise and negative values to zero.
func nonNegative(v float64) float64 {
	if v < deltaEpsilon {
		return 0
	}
	return v
}

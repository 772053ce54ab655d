package valuation

// Reconciliation and scoring constants. These encode the engine's policy
// and are kept here so each one can be tested on its own.
const (
	// EvenSplitDivisor splits the remainder of a weight edit across the
	// two approaches that were not edited.
	EvenSplitDivisor = 2.0

	// TotalWeight is the sum every Weights value must hold.
	TotalWeight = 100.0

	// ConfidenceScale converts the coefficient of variation between approach
	// values into confidence points.
	ConfidenceScale = 200.0

	// DefaultConfidence is reported when fewer than two approaches have a
	// positive value.
	DefaultConfidence = 50.0

	// MonthsPerYear converts monthly rent into annual rent for the GRM method.
	MonthsPerYear = 12.0

	// DaysPerMonth is the month length used to age a sale.
	DaysPerMonth = 30.0
)

// Recency thresholds in whole months since sale.
const (
	RecencyExcellentMonths = 6
	RecencyGoodMonths      = 12
	RecencyFairMonths      = 24
)

// Size similarity thresholds as fractions of the subject's square footage.
const (
	SizeExcellentDiff = 0.10
	SizeGoodDiff      = 0.25
	SizeFairDiff      = 0.50
)

// weightTolerance absorbs float rounding when checking a weight sum.
const weightTolerance = 1e-9

// DefaultWeights seeds a new workup.
var DefaultWeights = Weights{Sales: 50, Cost: 25, Income: 25}

// Options tunes Recompute and FinalValue.
type Options struct {
	// ExcludeZeroValueApproaches drops approaches whose value is zero from
	// the final blend and renormalises the remaining weights. The zero
	// value keeps the legacy behaviour, where an approach without data
	// still carries its weight and pulls the final value toward zero.
	ExcludeZeroValueApproaches bool
}

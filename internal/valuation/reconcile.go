package valuation

import (
	"errors"
	"fmt"
	"math"
)

// Approach names one of the three appraisal approaches.
type Approach string

const (
	ApproachSales  Approach = "sales"
	ApproachCost   Approach = "cost"
	ApproachIncome Approach = "income"
)

// Approaches lists every approach in display order.
var Approaches = []Approach{ApproachSales, ApproachCost, ApproachIncome}

var (
	// ErrUnknownApproach is returned for an approach name outside Approaches.
	ErrUnknownApproach = errors.New("unknown approach")
	// ErrWeightOutOfRange is returned for a weight outside [0, 100].
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 100")
)

// ParseApproach converts a name into an Approach.
func ParseApproach(s string) (Approach, error) {
	for _, a := range Approaches {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownApproach, s)
}

// Weights is the percentage split across the three approaches.
type Weights struct {
	Sales  float64 `json:"sales"`
	Cost   float64 `json:"cost"`
	Income float64 `json:"income"`
}

// Sum returns the total of all three weights.
func (w Weights) Sum() float64 {
	return w.Sales + w.Cost + w.Income
}

// Valid reports whether the weights sum to TotalWeight.
func (w Weights) Valid() bool {
	return math.Abs(w.Sum()-TotalWeight) <= weightTolerance
}

// Of returns the weight for a.
func (w Weights) Of(a Approach) float64 {
	switch a {
	case ApproachSales:
		return w.Sales
	case ApproachCost:
		return w.Cost
	case ApproachIncome:
		return w.Income
	}
	return 0
}

// Set assigns value to approach a and splits the remainder evenly between
// the other two, so the result always sums to TotalWeight.
func (w Weights) Set(a Approach, value float64) (Weights, error) {
	if math.IsNaN(value) || value < 0 || value > TotalWeight {
		return w, fmt.Errorf("%w: got %v", ErrWeightOutOfRange, value)
	}

	rest := (TotalWeight - value) / EvenSplitDivisor
	switch a {
	case ApproachSales:
		return Weights{Sales: value, Cost: rest, Income: rest}, nil
	case ApproachCost:
		return Weights{Sales: rest, Cost: value, Income: rest}, nil
	case ApproachIncome:
		return Weights{Sales: rest, Cost: rest, Income: value}, nil
	}
	return w, fmt.Errorf("%w: %q", ErrUnknownApproach, a)
}

// ApproachValues are the indicated values feeding reconciliation.
type ApproachValues struct {
	Sales  float64 `json:"sales"`
	Cost   float64 `json:"cost"`
	Income float64 `json:"income"`
}

// Of returns the value for a.
func (v ApproachValues) Of(a Approach) float64 {
	switch a {
	case ApproachSales:
		return v.Sales
	case ApproachCost:
		return v.Cost
	case ApproachIncome:
		return v.Income
	}
	return 0
}

// FinalValue blends the approach values by weight.
//
// By default every approach contributes its weight even when its value is
// zero, which dilutes the estimate. With ExcludeZeroValueApproaches set,
// zero-valued approaches are skipped and the remaining weights are
// renormalised.
func FinalValue(v ApproachValues, w Weights, opts Options) float64 {
	if !opts.ExcludeZeroValueApproaches {
		return v.Sales*w.Sales/100 + v.Cost*w.Cost/100 + v.Income*w.Income/100
	}

	var blended, total float64
	for _, a := range Approaches {
		if v.Of(a) == 0 {
			continue
		}
		blended += v.Of(a) * w.Of(a)
		total += w.Of(a)
	}
	if total == 0 {
		return 0
	}
	return blended / total
}

package appeal

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Decision classifies an assessment against the market value estimate.
type Decision string

const (
	// Over means the assessment is above market beyond tolerance; an
	// appeal is worth considering.
	Over Decision = "OVER"
	// Fair means the assessment is within tolerance of market.
	Fair Decision = "FAIR"
	// Under means the assessment is well below market; appealing risks an
	// increase.
	Under Decision = "UNDER"
)

// DefaultCODTarget is the tolerated excess of assessed over market value.
var DefaultCODTarget = decimal.RequireFromString("0.10")

var underThreshold = decimal.RequireFromString("0.90")

// Classification is the outcome of Classify.
type Classification struct {
	Decision Decision        `json:"decision"`
	Ratio    decimal.Decimal `json:"ratio"`
	// ReassessmentRisk flags that appealing could raise the assessment.
	ReassessmentRisk bool `json:"reassessment_risk"`
}

// Classify compares assessed with market. A ratio below 0.90 is Under, a
// ratio up to 1+codTarget is Fair, anything higher is Over.
func Classify(assessed, market float64, codTarget decimal.Decimal) (Classification, error) {
	if market <= 0 {
		return Classification{}, errors.New("market value must be positive")
	}
	if assessed <= 0 {
		return Classification{}, errors.New("assessed value must be positive")
	}

	ratio := decimal.NewFromFloat(assessed).Div(decimal.NewFromFloat(market))
	c := Classification{Ratio: ratio.Round(4)}

	switch {
	case ratio.LessThan(underThreshold):
		c.Decision = Under
		c.ReassessmentRisk = true
	case ratio.LessThanOrEqual(decimal.NewFromInt(1).Add(codTarget)):
		c.Decision = Fair
	default:
		c.Decision = Over
	}
	return c, nil
}

// Package appeal projects the economics of filing an assessment appeal and
// classifies an assessment against a market value estimate.
//
// Money is computed with exact decimals and rounded half away from zero to
// cents, matching how assessors publish tax bills.
package appeal

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MaxTaxRate is the highest accepted rate, in dollars per $1000.
	MaxTaxRate = 200
	// MaxYears bounds the savings horizon.
	MaxYears = 10
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
)

// SavingsInput describes an appeal outcome to project.
type SavingsInput struct {
	CurrentAssessment  float64 `json:"current_assessment"`
	ProposedAssessment float64 `json:"proposed_assessment"`
	// TaxRate is dollars per $1000 of assessed value (a mill rate).
	TaxRate     float64 `json:"tax_rate"`
	FilingFee   float64 `json:"filing_fee"`
	AttorneyFee float64 `json:"attorney_fee"`
	OtherCosts  float64 `json:"other_costs"`
	Years       int     `json:"years"`
}

// Validate checks the input ranges.
func (in SavingsInput) Validate() error {
	for _, v := range []float64{in.CurrentAssessment, in.ProposedAssessment, in.TaxRate, in.FilingFee, in.AttorneyFee, in.OtherCosts} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("amounts must be finite numbers")
		}
	}
	switch {
	case in.CurrentAssessment <= 0:
		return errors.New("current assessment must be positive")
	case in.ProposedAssessment <= 0:
		return errors.New("proposed assessment must be positive")
	case in.TaxRate <= 0:
		return errors.New("tax rate must be positive")
	case in.TaxRate > MaxTaxRate:
		return fmt.Errorf("tax rate per $1000 above %d is not plausible", MaxTaxRate)
	case in.FilingFee < 0, in.AttorneyFee < 0, in.OtherCosts < 0:
		return errors.New("appeal costs cannot be negative")
	case in.Years < 1 || in.Years > MaxYears:
		return fmt.Errorf("years must be between 1 and %d", MaxYears)
	}
	return nil
}

// SavingsResult is the projected tax effect of an appeal.
type SavingsResult struct {
	AnnualTaxCurrent    decimal.Decimal `json:"annual_tax_current"`
	AnnualTaxProposed   decimal.Decimal `json:"annual_tax_proposed"`
	AnnualSavings       decimal.Decimal `json:"annual_savings"`
	TotalCosts          decimal.Decimal `json:"total_costs"`
	NetFirstYearSavings decimal.Decimal `json:"net_first_year_savings"`
	CumulativeSavings   decimal.Decimal `json:"cumulative_savings"`
	// PaybackYears is nil unless there are both savings and costs.
	PaybackYears *decimal.Decimal `json:"payback_years,omitempty"`
	// ROIPercent is nil when the appeal costs nothing.
	ROIPercent *decimal.Decimal `json:"roi_percent,omitempty"`

	ValueIncrease   bool `json:"value_increase"`
	NegativeSavings bool `json:"negative_savings"`
}

// Savings projects annual tax, savings, payback and return for an appeal.
func Savings(in SavingsInput) (SavingsResult, error) {
	if err := in.Validate(); err != nil {
		return SavingsResult{}, fmt.Errorf("invalid savings input: %w", err)
	}

	current := decimal.NewFromFloat(in.CurrentAssessment)
	proposed := decimal.NewFromFloat(in.ProposedAssessment)
	rate := decimal.NewFromFloat(in.TaxRate).Div(thousand)
	years := decimal.NewFromInt(int64(in.Years))

	taxCurrent := current.Mul(rate)
	taxProposed := proposed.Mul(rate)
	annual := taxCurrent.Sub(taxProposed)
	costs := decimal.NewFromFloat(in.FilingFee).
		Add(decimal.NewFromFloat(in.AttorneyFee)).
		Add(decimal.NewFromFloat(in.OtherCosts))
	benefit := annual.Mul(years)

	res := SavingsResult{
		AnnualTaxCurrent:    cents(taxCurrent),
		AnnualTaxProposed:   cents(taxProposed),
		AnnualSavings:       cents(annual),
		TotalCosts:          cents(costs),
		NetFirstYearSavings: cents(annual.Sub(costs)),
		CumulativeSavings:   cents(benefit.Sub(costs)),
		ValueIncrease:       proposed.GreaterThan(current),
		NegativeSavings:     annual.IsNegative(),
	}

	if annual.IsPositive() && costs.IsPositive() {
		payback := cents(costs.Div(annual))
		res.PaybackYears = &payback
	}
	if costs.IsPositive() {
		roi := cents(benefit.Sub(costs).Div(costs).Mul(hundred))
		res.ROIPercent = &roi
	}

	return res, nil
}

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

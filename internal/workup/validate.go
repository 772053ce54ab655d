package workup

import (
	"errors"
	"fmt"
	"math"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

// ErrInvalidInput is wrapped by every rejected edit.
var ErrInvalidInput = errors.New("invalid input")

// ErrComparableNotFound is returned when editing a comparable that is not
// in the workup.
var ErrComparableNotFound = errors.New("comparable not found")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type field struct {
	name  string
	value float64
}

// firstNonFinite returns the name of the first NaN or infinite field.
func firstNonFinite(fields ...field) (string, bool) {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name, true
		}
	}
	return "", false
}

func validateComparable(c valuation.Comparable) error {
	a := c.Adjustments
	if name, bad := firstNonFinite(
		field{"sale price", c.SalePrice},
		field{"square footage", c.SquareFootage},
		field{"lot size", c.LotSize},
		field{"weight", c.Weight},
		field{"time adjustment", a.Time},
		field{"location adjustment", a.Location},
		field{"age adjustment", a.Age},
		field{"quality adjustment", a.Quality},
		field{"market conditions adjustment", a.MarketConditions},
		field{"financing adjustment", a.Financing},
		field{"conditions of sale adjustment", a.ConditionsOfSale},
	); bad {
		return invalid("%s must be a finite number", name)
	}
	switch {
	case c.SalePrice < 0:
		return invalid("sale price cannot be negative")
	case c.SquareFootage < 0:
		return invalid("square footage cannot be negative")
	case c.LotSize < 0:
		return invalid("lot size cannot be negative")
	case c.Weight < 0 || c.Weight > valuation.TotalWeight:
		return invalid("comparable weight must be between 0 and 100")
	case !valuation.ValidQuality(string(c.ConstructionQuality)):
		return invalid("unknown construction quality %q", c.ConstructionQuality)
	case !valuation.ValidQuality(string(c.ConditionRating)):
		return invalid("unknown condition rating %q", c.ConditionRating)
	case !valuation.ValidConfidenceTier(string(c.Confidence)):
		return invalid("unknown confidence %q", c.Confidence)
	}
	return nil
}

func validateCost(d valuation.CostApproachData) error {
	fields := []field{
		{"land value", d.LandValue},
		{"replacement cost new", d.ReplacementCostNew},
		{"physical depreciation", d.PhysicalDepreciation},
		{"functional obsolescence", d.FunctionalObsolescence},
		{"economic obsolescence", d.EconomicObsolescence},
	}
	if name, bad := firstNonFinite(fields...); bad {
		return invalid("%s must be a finite number", name)
	}
	for _, f := range fields {
		if f.value < 0 {
			return invalid("%s cannot be negative", f.name)
		}
	}
	return nil
}

func validateIncome(d valuation.IncomeApproachData) error {
	if name, bad := firstNonFinite(
		field{"gross rental income", d.GrossRentalIncome},
		field{"vacancy rate", d.VacancyRate},
		field{"operating expenses", d.OperatingExpenses},
		field{"capitalization rate", d.CapitalizationRate},
		field{"monthly rent", d.MonthlyRent},
		field{"gross rent multiplier", d.GrossRentMultiplier},
	); bad {
		return invalid("%s must be a finite number", name)
	}
	switch {
	case d.GrossRentalIncome < 0:
		return invalid("gross rental income cannot be negative")
	case d.VacancyRate < 0 || d.VacancyRate > 1:
		return invalid("vacancy rate must be between 0 and 1")
	case d.OperatingExpenses < 0:
		return invalid("operating expenses cannot be negative")
	case d.CapitalizationRate < 0:
		return invalid("capitalization rate cannot be negative")
	case d.MonthlyRent < 0:
		return invalid("monthly rent cannot be negative")
	case d.GrossRentMultiplier < 0:
		return invalid("gross rent multiplier cannot be negative")
	}
	return nil
}

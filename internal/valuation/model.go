// Package valuation implements the sales comparison, cost and income
// appraisal approaches, their weighted reconciliation into a single value
// estimate, a confidence score, and descriptive statistics over the
// comparable-sales set.
//
// Every function in this package is pure: inputs are passed explicitly,
// nothing is cached, and no argument is mutated.
package valuation

import "time"

// Quality grades construction quality and condition.
type Quality string

const (
	QualityPoor      Quality = "poor"
	QualityFair      Quality = "fair"
	QualityAverage   Quality = "average"
	QualityGood      Quality = "good"
	QualityExcellent Quality = "excellent"
)

// ValidQuality returns true if s is a known quality grade or empty.
func ValidQuality(s string) bool {
	switch Quality(s) {
	case "", QualityPoor, QualityFair, QualityAverage, QualityGood, QualityExcellent:
		return true
	}
	return false
}

// ConfidenceTier is the user-assigned reliability of a single comparable.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// ValidConfidenceTier returns true if s is a known tier or empty.
func ValidConfidenceTier(s string) bool {
	switch ConfidenceTier(s) {
	case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Adjustments are signed percentage adjustments applied to a comparable's
// price per square foot. They are summed, not compounded.
type Adjustments struct {
	Time             float64 `json:"time"`
	Location         float64 `json:"location"`
	Age              float64 `json:"age"`
	Quality          float64 `json:"quality"`
	MarketConditions float64 `json:"market_conditions"`
	Financing        float64 `json:"financing"`
	ConditionsOfSale float64 `json:"conditions_of_sale"`
}

// Total returns the sum of all adjustment percentages.
func (a Adjustments) Total() float64 {
	return a.Time + a.Location + a.Age + a.Quality + a.MarketConditions + a.Financing + a.ConditionsOfSale
}

// Comparable is one comparable sale used in the sales comparison approach.
type Comparable struct {
	ID                  string         `json:"id"`
	Address             string         `json:"address"`
	SalePrice           float64        `json:"sale_price"`
	SaleDate            time.Time      `json:"sale_date"`
	SquareFootage       float64        `json:"square_footage"`
	LotSize             float64        `json:"lot_size"`
	YearBuilt           int            `json:"year_built"`
	ParkingSpaces       int            `json:"parking_spaces"`
	StoriesCount        int            `json:"stories_count"`
	ConstructionQuality Quality        `json:"construction_quality,omitempty"`
	ConditionRating     Quality        `json:"condition_rating,omitempty"`
	Adjustments         Adjustments    `json:"adjustments"`
	Weight              float64        `json:"weight"`
	Confidence          ConfidenceTier `json:"confidence,omitempty"`
	// Source records where the sale came from ("demo", "market", "csv").
	// Empty means it was entered by hand.
	Source string `json:"source,omitempty"`

	// Derived by AdjustComparable.
	PricePerSqFt         float64 `json:"price_per_sqft"`
	AdjustedPricePerSqFt float64 `json:"adjusted_price_per_sqft"`
	IndicatedValue       float64 `json:"indicated_value"`
}

// SubjectProperty is the property under appeal.
type SubjectProperty struct {
	ID                string  `json:"id"`
	SquareFootage     float64 `json:"square_footage"`
	LotSize           float64 `json:"lot_size"`
	YearBuilt         int     `json:"year_built"`
	CurrentAssessment float64 `json:"current_assessment"`
}

// SalesApproachResult is the adjusted comparable set and its average
// indicated value.
type SalesApproachResult struct {
	Comparables  []Comparable `json:"comparables"`
	AverageValue float64      `json:"average_value"`
}

// CostApproachData holds cost approach inputs and the derived value.
type CostApproachData struct {
	LandValue              float64 `json:"land_value"`
	ReplacementCostNew     float64 `json:"replacement_cost_new"`
	PhysicalDepreciation   float64 `json:"physical_depreciation"`
	FunctionalObsolescence float64 `json:"functional_obsolescence"`
	EconomicObsolescence   float64 `json:"economic_obsolescence"`

	TotalDepreciation float64 `json:"total_depreciation"`
	DepreciatedValue  float64 `json:"depreciated_value"`
}

// IncomeApproachData holds income approach inputs and derived values for
// both the direct capitalization and gross rent multiplier methods.
type IncomeApproachData struct {
	GrossRentalIncome   float64 `json:"gross_rental_income"`
	VacancyRate         float64 `json:"vacancy_rate"`
	OperatingExpenses   float64 `json:"operating_expenses"`
	CapitalizationRate  float64 `json:"capitalization_rate"`
	MonthlyRent         float64 `json:"monthly_rent"`
	GrossRentMultiplier float64 `json:"gross_rent_multiplier"`

	EffectiveGrossIncome float64 `json:"effective_gross_income"`
	NetOperatingIncome   float64 `json:"net_operating_income"`
	// CapitalizedValue is nil when the capitalization rate is zero.
	CapitalizedValue *float64 `json:"capitalized_value"`
	GRMValue         float64  `json:"grm_value"`
	RecommendedValue float64  `json:"recommended_value"`
}

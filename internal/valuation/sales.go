package valuation

// PricePerSqFt returns price divided by area, or 0 when the area is not
// positive.
func PricePerSqFt(price, sqft float64) float64 {
	if sqft <= 0 {
		return 0
	}
	return price / sqft
}

// AdjustmentFactor converts summed percentage adjustments into a multiplier.
func AdjustmentFactor(a Adjustments) float64 {
	return 1 + a.Total()/100
}

// AdjustComparable returns a copy of c with its price per square foot,
// adjusted price per square foot, and indicated value for a subject of
// subjectSqFt square feet filled in. Negative results are kept as-is.
func AdjustComparable(c Comparable, subjectSqFt float64) Comparable {
	c.PricePerSqFt = PricePerSqFt(c.SalePrice, c.SquareFootage)
	c.AdjustedPricePerSqFt = c.PricePerSqFt * AdjustmentFactor(c.Adjustments)
	c.IndicatedValue = c.AdjustedPricePerSqFt * subjectSqFt
	return c
}

// SalesApproach adjusts every comparable and averages their indicated
// values. The average is an unweighted mean; each comparable's Weight is
// informational only. An empty set yields 0.
func SalesApproach(comps []Comparable, subjectSqFt float64) SalesApproachResult {
	adjusted := make([]Comparable, len(comps))
	var sum float64
	for i, c := range comps {
		adjusted[i] = AdjustComparable(c, subjectSqFt)
		sum += adjusted[i].IndicatedValue
	}

	result := SalesApproachResult{Comparables: adjusted}
	if len(adjusted) > 0 {
		result.AverageValue = sum / float64(len(adjusted))
	}
	return result
}

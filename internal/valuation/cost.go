package valuation

// CostApproach fills in total depreciation and depreciated value.
// Over-depreciation produces a negative value; it is not clamped.
func CostApproach(d CostApproachData) CostApproachData {
	d.TotalDepreciation = d.PhysicalDepreciation + d.FunctionalObsolescence + d.EconomicObsolescence
	d.DepreciatedValue = d.LandValue + d.ReplacementCostNew - d.TotalDepreciation
	return d
}

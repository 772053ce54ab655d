package valuation

import "errors"

// ErrZeroCapRate is returned when direct capitalization is asked to divide
// by a zero capitalization rate.
var ErrZeroCapRate = errors.New("capitalization rate is zero")

// DirectCapitalization returns effective gross income, net operating income
// and capitalized value. The income figures are always returned; the value
// is only meaningful when err is nil.
func DirectCapitalization(d IncomeApproachData) (egi, noi, value float64, err error) {
	egi = d.GrossRentalIncome * (1 - d.VacancyRate)
	noi = egi - d.OperatingExpenses
	if d.CapitalizationRate == 0 {
		return egi, noi, 0, ErrZeroCapRate
	}
	return egi, noi, noi / d.CapitalizationRate, nil
}

// GrossRentMultiplierValue values a property from its monthly rent.
func GrossRentMultiplierValue(monthlyRent, grm float64) float64 {
	return monthlyRent * MonthsPerYear * grm
}

// IncomeApproach computes both sub-methods and recommends the higher of the
// two indications. When the capitalization rate is zero the capitalized
// value is nil and the GRM value is recommended.
func IncomeApproach(d IncomeApproachData) IncomeApproachData {
	egi, noi, capValue, err := DirectCapitalization(d)
	d.EffectiveGrossIncome = egi
	d.NetOperatingIncome = noi
	d.GRMValue = GrossRentMultiplierValue(d.MonthlyRent, d.GrossRentMultiplier)

	if err != nil {
		d.CapitalizedValue = nil
		d.RecommendedValue = d.GRMValue
		return d
	}

	d.CapitalizedValue = &capValue
	d.RecommendedValue = max(capValue, d.GRMValue)
	return d
}

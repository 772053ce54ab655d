package valuation

import (
	"errors"
	"math"
	"testing"
)

func TestDirectCapitalization(t *testing.T) {
	d := IncomeApproachData{
		GrossRentalIncome:  120000,
		VacancyRate:        0.05,
		OperatingExpenses:  35000,
		CapitalizationRate: 0.075,
	}

	egi, noi, value, err := DirectCapitalization(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "egi", egi, 114000, 1e-6)
	assertClose(t, "noi", noi, 79000, 1e-6)
	assertClose(t, "value", value, 1053333.33, 0.01)
}

func TestDirectCapitalizationZeroCapRate(t *testing.T) {
	d := IncomeApproachData{GrossRentalIncome: 120000, OperatingExpenses: 20000}

	egi, noi, value, err := DirectCapitalization(d)
	if !errors.Is(err, ErrZeroCapRate) {
		t.Fatalf("err = %v, want ErrZeroCapRate", err)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		t.Errorf("value = %v, want finite", value)
	}
	assertClose(t, "egi", egi, 120000, 1e-9)
	assertClose(t, "noi", noi, 100000, 1e-9)
}

func TestGrossRentMultiplierValue(t *testing.T) {
	assertClose(t, "grm value", GrossRentMultiplierValue(2500, 10), 300000, 1e-9)
	assertClose(t, "zero rent", GrossRentMultiplierValue(0, 10), 0, 0)
}

func TestIncomeApproach(t *testing.T) {
	tests := []struct {
		name            string
		in              IncomeApproachData
		wantCapValue    *float64
		wantGRM         float64
		wantRecommended float64
	}{
		{
			name: "capitalized value higher",
			in: IncomeApproachData{
				GrossRentalIncome: 120000, VacancyRate: 0.05, OperatingExpenses: 35000, CapitalizationRate: 0.075,
				MonthlyRent: 8000, GrossRentMultiplier: 10,
			},
			wantCapValue:    ptr(1053333.3333),
			wantGRM:         960000,
			wantRecommended: 1053333.3333,
		},
		{
			name: "grm value higher",
			in: IncomeApproachData{
				GrossRentalIncome: 120000, VacancyRate: 0.05, OperatingExpenses: 35000, CapitalizationRate: 0.075,
				MonthlyRent: 10000, GrossRentMultiplier: 10,
			},
			wantCapValue:    ptr(1053333.3333),
			wantGRM:         1200000,
			wantRecommended: 1200000,
		},
		{
			name:            "zero cap rate falls back to grm",
			in:              IncomeApproachData{GrossRentalIncome: 120000, MonthlyRent: 2000, GrossRentMultiplier: 12},
			wantGRM:         288000,
			wantRecommended: 288000,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IncomeApproach(tt.in)
			switch {
			case tt.wantCapValue == nil && got.CapitalizedValue != nil:
				t.Errorf("capitalized value = %v, want nil", *got.CapitalizedValue)
			case tt.wantCapValue != nil && got.CapitalizedValue == nil:
				t.Error("capitalized value = nil, want a value")
			case tt.wantCapValue != nil:
				assertClose(t, "capitalized", *got.CapitalizedValue, *tt.wantCapValue, 0.001)
			}
			assertClose(t, "grm", got.GRMValue, tt.wantGRM, 1e-6)
			assertClose(t, "recommended", got.RecommendedValue, tt.wantRecommended, 0.001)
		})
	}
}

func ptr(f float64) *float64 { return &f }

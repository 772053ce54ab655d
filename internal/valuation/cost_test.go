package valuation

import "testing"

func TestCostApproach(t *testing.T) {
	tests := []struct {
		name      string
		in        CostApproachData
		wantDep   float64
		wantValue float64
	}{
		{
			name: "typical",
			in: CostApproachData{
				LandValue:              150000,
				ReplacementCostNew:     250000,
				PhysicalDepreciation:   25000,
				FunctionalObsolescence: 10000,
				EconomicObsolescence:   5000,
			},
			wantDep:   40000,
			wantValue: 360000,
		},
		{
			name: "over-depreciated stays negative",
			in: CostApproachData{
				LandValue:            10000,
				ReplacementCostNew:   50000,
				PhysicalDepreciation: 100000,
			},
			wantDep:   100000,
			wantValue: -40000,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CostApproach(tt.in)
			assertClose(t, "total depreciation", got.TotalDepreciation, tt.wantDep, 1e-9)
			assertClose(t, "depreciated value", got.DepreciatedValue, tt.wantValue, 1e-9)
		})
	}
}

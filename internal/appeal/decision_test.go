package appeal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		assessed float64
		market   float64
		want     Decision
		wantRisk bool
	}{
		{"well under", 80000, 100000, Under, true},
		{"just under threshold", 89999, 100000, Under, true},
		{"at 0.90", 90000, 100000, Fair, false},
		{"equal", 100000, 100000, Fair, false},
		{"at tolerance", 110000, 100000, Fair, false},
		{"over tolerance", 110001, 100000, Over, false},
		{"far over", 150000, 100000, Over, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.assessed, tt.market, DefaultCODTarget)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got.Decision != tt.want {
				t.Errorf("decision = %s, want %s (ratio %s)", got.Decision, tt.want, got.Ratio)
			}
			if got.ReassessmentRisk != tt.wantRisk {
				t.Errorf("reassessment risk = %v, want %v", got.ReassessmentRisk, tt.wantRisk)
			}
		})
	}
}

func TestClassifyCustomTarget(t *testing.T) {
	got, err := Classify(104000, 100000, decimal.RequireFromString("0.03"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Decision != Over {
		t.Errorf("decision = %s, want OVER", got.Decision)
	}
}

func TestClassifyInvalid(t *testing.T) {
	if _, err := Classify(100000, 0, DefaultCODTarget); err == nil {
		t.Error("expected error for zero market value")
	}
	if _, err := Classify(0, 100000, DefaultCODTarget); err == nil {
		t.Error("expected error for zero assessed value")
	}
}

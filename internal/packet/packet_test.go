package packet

import (
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/tax-appeal/internal/appeal"
	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/narrative"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
)

func sampleInput() Input {
	p := &property.Property{
		ID:                1,
		Address:           "12 Elm St",
		ParcelID:          "04-221-007",
		Jurisdiction:      "Travis County",
		SquareFootage:     1800,
		YearBuilt:         1995,
		CurrentAssessment: 420000,
	}
	w := valuation.NewWorkup(p.Subject())
	w = w.WithComparable(valuation.Comparable{
		ID:            "c1",
		Address:       "14 Elm St",
		SalePrice:     380000,
		SaleDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SquareFootage: 1800,
		Weight:        1,
	})
	w.Cost = valuation.CostApproach(valuation.CostApproachData{LandValue: 100000, ReplacementCostNew: 300000})
	w = valuation.Recompute(w, valuation.Options{}, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	return Input{
		Property: p,
		Workup:   w,
		Evidence: []*evidence.Note{
			{Text: "Roof leaks in two places", Author: "owner", CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
		Narrative:   narrative.Narrative{Text: "The subject is over-assessed."},
		GeneratedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuild(t *testing.T) {
	md, err := Build(sampleInput())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, want := range []string{
		"# Assessment Appeal: 12 Elm St",
		"04-221-007",
		"$420,000",
		"| 14 Elm St | 2025-03-01 | $380,000 |",
		"## Cost Approach",
		"| **Depreciated value** | **$400,000** |",
		"## Income Approach",
		"| Capitalized value | n/a |",
		"## Reconciliation",
		"| Sales comparison | $380,000 | 50% |",
		"The subject is over-assessed.",
		"- Roof leaks in two places (owner, 2025-05-01)",
		"July 1, 2025",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("packet missing %q", want)
		}
	}

	if strings.Contains(md, "Demo data") {
		t.Error("real packet should not carry a demo label")
	}
	if strings.Contains(md, "## Tax Impact") {
		t.Error("tax impact rendered without savings")
	}
}

func TestBuildSyntheticLabel(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Input)
	}{
		{"synthetic narrative", func(in *Input) { in.Narrative.Synthetic = true }},
		{"synthetic comparables", func(in *Input) { in.Synthetic = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.apply(&in)
			md, err := Build(in)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if !strings.Contains(md, "**Demo data.**") {
				t.Error("missing demo data label")
			}
		})
	}
}

func TestBuildWithSavings(t *testing.T) {
	in := sampleInput()
	res, err := appeal.Savings(appeal.SavingsInput{
		CurrentAssessment:  420000,
		ProposedAssessment: 380000,
		TaxRate:            20,
		FilingFee:          100,
		Years:              3,
	})
	if err != nil {
		t.Fatalf("savings: %v", err)
	}
	in.Savings = &res

	md, err := Build(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{
		"## Tax Impact",
		"| Annual savings | $800.00 |",
		"| Payback | 0.13 years |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("packet missing %q", want)
		}
	}
}

func TestBuildNoComparables(t *testing.T) {
	in := sampleInput()
	in.Workup = valuation.NewWorkup(in.Property.Subject())

	md, err := Build(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(md, "No comparable sales were entered.") {
		t.Error("missing empty comparables note")
	}
}

func TestBuildRequiresProperty(t *testing.T) {
	if _, err := Build(Input{}); err == nil {
		t.Error("expected error without property")
	}
}

func TestHTML(t *testing.T) {
	md, err := Build(sampleInput())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	page, err := HTML("Appeal <12 Elm St>", md)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	html := string(page)

	for _, want := range []string{
		"<title>Appeal &lt;12 Elm St&gt;</title>",
		"<h1>Assessment Appeal: 12 Elm St</h1>",
		"<table>",
		"<td>14 Elm St</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

package workup

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/tax-appeal/internal/db"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func TestStart(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 1800, 650000)

	s, err := svc.Start(ctx, p.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.Controller.Unlocked || s.Controller.Stage != workflow.StageSales {
		t.Errorf("controller = %+v", s.Controller)
	}
	if s.Workup.Weights != valuation.DefaultWeights {
		t.Errorf("weights = %+v", s.Workup.Weights)
	}
	if s.Workup.ConfidenceLevel != valuation.DefaultConfidence {
		t.Errorf("confidence = %v, want %v", s.Workup.ConfidenceLevel, valuation.DefaultConfidence)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Workup.Subject.SquareFootage != 1800 {
		t.Errorf("subject sqft = %v, want 1800", got.Workup.Subject.SquareFootage)
	}
}

func TestStartUnknownProperty(t *testing.T) {
	svc, _ := testService(t, valuation.Options{})

	_, err := svc.Start(context.Background(), 9999)
	if !errors.Is(err, property.ErrNotFound) {
		t.Fatalf("err = %v, want property.ErrNotFound", err)
	}
}

func TestEditsBeforeStart(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 1800, 650000)

	_, err := svc.SetCost(ctx, p.ID, valuation.CostApproachData{LandValue: 1})
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("set cost err = %v, want ErrNotStarted", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrNotStarted) {
		t.Errorf("get err = %v, want ErrNotStarted", err)
	}
	if err := svc.Reset(ctx, p.ID); !errors.Is(err, ErrNotStarted) {
		t.Errorf("reset err = %v, want ErrNotStarted", err)
	}
}

func TestFullWorkup(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 1800, 650000)

	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	s, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{
		SalePrice: 500000, SquareFootage: 2000, SaleDate: testNow.AddDate(0, -3, 0),
		Adjustments: valuation.Adjustments{Time: 2, Location: -1, Quality: 1},
	})
	if err != nil {
		t.Fatalf("add comparable: %v", err)
	}
	if len(s.Workup.Sales.Comparables) != 1 || s.Workup.Sales.Comparables[0].ID == "" {
		t.Fatalf("comparables = %+v", s.Workup.Sales.Comparables)
	}
	assertClose(t, "sales", s.Workup.Sales.AverageValue, 459000)

	if _, err := svc.SetCost(ctx, p.ID, valuation.CostApproachData{
		LandValue: 150000, ReplacementCostNew: 250000,
		PhysicalDepreciation: 25000, FunctionalObsolescence: 10000, EconomicObsolescence: 5000,
	}); err != nil {
		t.Fatalf("set cost: %v", err)
	}

	s, err = svc.SetIncome(ctx, p.ID, valuation.IncomeApproachData{
		GrossRentalIncome: 48000, VacancyRate: 0.05, OperatingExpenses: 14000, CapitalizationRate: 0.07,
	})
	if err != nil {
		t.Fatalf("set income: %v", err)
	}

	s, err = svc.SetWeight(ctx, p.ID, valuation.ApproachSales, 60)
	if err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if s.Workup.Weights != (valuation.Weights{Sales: 60, Cost: 20, Income: 20}) {
		t.Errorf("weights = %+v", s.Workup.Weights)
	}

	income := 31600 / 0.07
	want := 459000*0.6 + 360000*0.2 + income*0.2
	assertClose(t, "final", s.Workup.FinalValueEstimate, want)
	assertClose(t, "savings", s.Workup.PotentialSavings, 650000-want)
	if s.Workup.Statistics.SampleSize != 1 {
		t.Errorf("sample size = %d", s.Workup.Statistics.SampleSize)
	}

	// The saved copy matches what the edit returned.
	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertClose(t, "stored final", got.Workup.FinalValueEstimate, want)
}

func TestZeroValueApproachOption(t *testing.T) {
	tests := []struct {
		name string
		opts valuation.Options
		want float64
	}{
		{"legacy dilution", valuation.Options{}, 459000 * 0.5},
		{"excluded", valuation.Options{ExcludeZeroValueApproaches: true}, 459000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, props := testService(t, tt.opts)
			ctx := context.Background()
			p := addProperty(t, props, 1800, 650000)

			if _, err := svc.Start(ctx, p.ID); err != nil {
				t.Fatalf("start: %v", err)
			}
			s, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{
				SalePrice: 500000, SquareFootage: 2000,
				Adjustments: valuation.Adjustments{Time: 2, Location: -1, Quality: 1},
			})
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			assertClose(t, "final", s.Workup.FinalValueEstimate, tt.want)
		})
	}
}

func TestComparableEdits(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 2000, 500000)
	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	s, err := svc.ImportComparables(ctx, p.ID, []valuation.Comparable{
		{ID: "a", SalePrice: 400000, SquareFootage: 2000},
		{SalePrice: 420000, SquareFootage: 2000},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(s.Workup.Sales.Comparables) != 2 {
		t.Fatalf("got %d comparables, want 2", len(s.Workup.Sales.Comparables))
	}

	s, err = svc.UpdateComparable(ctx, p.ID, valuation.Comparable{ID: "a", SalePrice: 380000, SquareFootage: 2000})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	assertClose(t, "average", s.Workup.Sales.AverageValue, 400000)

	if _, err := svc.UpdateComparable(ctx, p.ID, valuation.Comparable{ID: "missing", SalePrice: 1}); !errors.Is(err, ErrComparableNotFound) {
		t.Errorf("update missing err = %v, want ErrComparableNotFound", err)
	}

	s, err = svc.RemoveComparable(ctx, p.ID, "a")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.Workup.Sales.Comparables) != 1 {
		t.Errorf("got %d comparables after remove, want 1", len(s.Workup.Sales.Comparables))
	}
	if _, err := svc.RemoveComparable(ctx, p.ID, "a"); !errors.Is(err, ErrComparableNotFound) {
		t.Errorf("remove twice err = %v, want ErrComparableNotFound", err)
	}
}

func TestInvalidEdits(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 2000, 500000)
	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	tests := []struct {
		name string
		run  func() error
	}{
		{"negative sqft", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{SalePrice: 1, SquareFootage: -1})
			return err
		}},
		{"bad quality", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{ConstructionQuality: "superb"})
			return err
		}},
		{"bad import", func() error {
			_, err := svc.ImportComparables(ctx, p.ID, []valuation.Comparable{{SalePrice: 1}, {Weight: 120}})
			return err
		}},
		{"negative cost", func() error {
			_, err := svc.SetCost(ctx, p.ID, valuation.CostApproachData{LandValue: -1})
			return err
		}},
		{"vacancy above one", func() error {
			_, err := svc.SetIncome(ctx, p.ID, valuation.IncomeApproachData{VacancyRate: 5})
			return err
		}},
		{"weight out of range", func() error {
			_, err := svc.SetWeight(ctx, p.ID, valuation.ApproachCost, 101)
			return err
		}},
		{"nan sale price", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{SalePrice: math.NaN(), SquareFootage: 2000})
			return err
		}},
		{"inf sqft", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{SalePrice: 1, SquareFootage: math.Inf(1)})
			return err
		}},
		{"nan weight", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{SalePrice: 1, Weight: math.NaN()})
			return err
		}},
		{"inf adjustment", func() error {
			_, err := svc.AddComparable(ctx, p.ID, valuation.Comparable{SalePrice: 1, Adjustments: valuation.Adjustments{Time: math.Inf(-1)}})
			return err
		}},
		{"nan import", func() error {
			_, err := svc.ImportComparables(ctx, p.ID, []valuation.Comparable{{SalePrice: 1}, {SalePrice: 1, LotSize: math.NaN()}})
			return err
		}},
		{"nan cost", func() error {
			_, err := svc.SetCost(ctx, p.ID, valuation.CostApproachData{LandValue: math.NaN()})
			return err
		}},
		{"inf cost", func() error {
			_, err := svc.SetCost(ctx, p.ID, valuation.CostApproachData{ReplacementCostNew: math.Inf(1)})
			return err
		}},
		{"inf income", func() error {
			_, err := svc.SetIncome(ctx, p.ID, valuation.IncomeApproachData{GrossRentalIncome: math.Inf(1)})
			return err
		}},
		{"nan vacancy", func() error {
			_, err := svc.SetIncome(ctx, p.ID, valuation.IncomeApproachData{VacancyRate: math.NaN()})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	s, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(s.Workup.Sales.Comparables) != 0 {
		t.Error("rejected edits should not be stored")
	}
	if c := s.Workup.Cost; c.LandValue != 0 || c.ReplacementCostNew != 0 {
		t.Errorf("cost = %+v, rejected edits should not be stored", c)
	}
}

func TestValidateCostReportsFirstField(t *testing.T) {
	d := valuation.CostApproachData{
		LandValue:            -1,
		ReplacementCostNew:   -1,
		PhysicalDepreciation: -1,
		EconomicObsolescence: -1,
	}
	for i := 0; i < 20; i++ {
		err := validateCost(d)
		if err == nil || err.Error() != "invalid input: land value cannot be negative" {
			t.Fatalf("err = %v, want land value reported first", err)
		}
	}

	d = valuation.CostApproachData{LandValue: -1, FunctionalObsolescence: math.NaN()}
	if err := validateCost(d); err == nil || err.Error() != "invalid input: functional obsolescence must be a finite number" {
		t.Errorf("err = %v, want non-finite reported before sign", err)
	}
}

func TestUpdateKeepsComparableSource(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 2000, 500000)
	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.ImportComparables(ctx, p.ID, []valuation.Comparable{
		{ID: "d1", Address: "Demo Comparable 1", SalePrice: 400000, SquareFootage: 2000, Source: "demo"},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}

	s, err := svc.UpdateComparable(ctx, p.ID, valuation.Comparable{
		ID: "d1", Address: "41 Birch Ln", SalePrice: 400000, SquareFootage: 2000,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got := s.Workup.Sales.Comparables[0]
	if got.Address != "41 Birch Ln" {
		t.Errorf("address = %q, want edited address", got.Address)
	}
	if got.Source != "demo" {
		t.Errorf("source = %q, want demo kept after address edit", got.Source)
	}
}

func TestSetStageAndReset(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 2000, 500000)
	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	s, err := svc.SetStage(ctx, p.ID, workflow.StageReview)
	if err != nil {
		t.Fatalf("set stage: %v", err)
	}
	if !s.ReadyForPacket() {
		t.Error("expected session ready for packet")
	}

	if _, err := svc.SetStage(ctx, p.ID, workflow.Stage("filed")); !errors.Is(err, workflow.ErrUnknownStage) {
		t.Errorf("err = %v, want ErrUnknownStage", err)
	}

	if err := svc.Reset(ctx, p.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrNotStarted) {
		t.Errorf("get after reset err = %v, want ErrNotStarted", err)
	}
}

func TestSubjectRefreshedOnEdit(t *testing.T) {
	svc, props := testService(t, valuation.Options{})
	ctx := context.Background()
	p := addProperty(t, props, 2000, 500000)
	if _, err := svc.Start(ctx, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	p.CurrentAssessment = 520000
	if _, err := props.Update(p); err != nil {
		t.Fatalf("update property: %v", err)
	}

	s, err := svc.SetWeight(ctx, p.ID, valuation.ApproachSales, 50)
	if err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if s.Workup.Subject.CurrentAssessment != 520000 {
		t.Errorf("current assessment = %v, want 520000", s.Workup.Subject.CurrentAssessment)
	}
}

func testService(t *testing.T, opts valuation.Options) (*Service, *property.Repository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	props := property.NewRepository(d)
	svc := NewService(NewRepository(d), props, opts)
	svc.SetClock(func() time.Time { return testNow })
	return svc, props
}

func addProperty(t *testing.T, repo *property.Repository, sqft, assessment float64) *property.Property {
	t.Helper()
	p, err := repo.Insert(&property.Property{Address: "100 Appeal Way", SquareFootage: sqft, CurrentAssessment: assessment})
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	return p
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

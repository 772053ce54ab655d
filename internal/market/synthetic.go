package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

// DemoSquareFootage stands in for a subject with no recorded area.
const DemoSquareFootage = 1800

const demoAddressPrefix = "Demo comparable "

// demoNamespace seeds the stable IDs of demo comparables.
var demoNamespace = uuid.MustParse("6f1c2a4e-8d3b-4c5a-9e7f-2b1d0a9c8e71")

type demoSale struct {
	sizeFactor   float64
	pricePerSqFt float64
	monthsAgo    int
	yearBuilt    int
	quality      valuation.Quality
}

var demoSales = []demoSale{
	{1.00, 205, 2, 2004, valuation.QualityAverage},
	{0.94, 212, 4, 2001, valuation.QualityGood},
	{1.06, 198, 7, 1998, valuation.QualityAverage},
	{0.90, 221, 9, 2008, valuation.QualityGood},
	{1.12, 191, 14, 1995, valuation.QualityFair},
	{0.97, 208, 18, 2003, valuation.QualityAverage},
	{1.03, 201, 22, 2000, valuation.QualityAverage},
	{1.18, 186, 27, 1992, valuation.QualityFair},
}

// Synthetic builds demo comparables scaled to the subject's size. The same
// request and date always produce the same comparables.
func Synthetic(req Request, asOf time.Time) []valuation.Comparable {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > len(demoSales) {
		limit = len(demoSales)
	}

	sqft := req.SquareFootage
	if sqft <= 0 {
		sqft = DemoSquareFootage
	}
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	comps := make([]valuation.Comparable, 0, limit)
	for i, d := range demoSales[:limit] {
		area := float64(int(sqft*d.sizeFactor/10)) * 10
		comps = append(comps, valuation.Comparable{
			ID:                  uuid.NewSHA1(demoNamespace, []byte(fmt.Sprintf("%s#%d", req.Address, i))).String(),
			Address:             fmt.Sprintf("%s%d", demoAddressPrefix, i+1),
			SalePrice:           area * d.pricePerSqFt,
			SaleDate:            day.AddDate(0, -d.monthsAgo, 0),
			SquareFootage:       area,
			YearBuilt:           d.yearBuilt,
			ConstructionQuality: d.quality,
			ConditionRating:     valuation.QualityAverage,
			Confidence:          valuation.ConfidenceLow,
			Source:              SourceDemo,
		})
	}
	return comps
}

// ContainsDemo reports whether any comparable came from Synthetic.
func ContainsDemo(comps []valuation.Comparable) bool {
	for _, c := range comps {
		if c.Source == SourceDemo {
			return true
		}
	}
	return false
}

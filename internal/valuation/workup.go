package valuation

import "time"

// ValuationWorkup is the aggregate of everything the engine computes for a
// single subject property.
type ValuationWorkup struct {
	Subject    SubjectProperty      `json:"subject"`
	Sales      SalesApproachResult  `json:"sales"`
	Cost       CostApproachData     `json:"cost"`
	Income     IncomeApproachData   `json:"income"`
	Weights    Weights              `json:"weights"`
	Statistics ComparableStatistics `json:"statistics"`

	FinalValueEstimate float64 `json:"final_value_estimate"`
	ProposedAssessment float64 `json:"proposed_assessment"`
	PotentialSavings   float64 `json:"potential_savings"`
	ConfidenceLevel    float64 `json:"confidence_level"`
}

// NewWorkup returns an empty workup for subject with DefaultWeights.
func NewWorkup(subject SubjectProperty) ValuationWorkup {
	return ValuationWorkup{
		Subject: subject,
		Sales:   SalesApproachResult{Comparables: []Comparable{}},
		Weights: DefaultWeights,
	}
}

// ApproachValues returns the sales average, depreciated cost value and
// recommended income value as last computed.
func (w ValuationWorkup) ApproachValues() ApproachValues {
	return ApproachValues{
		Sales:  w.Sales.AverageValue,
		Cost:   w.Cost.DepreciatedValue,
		Income: w.Income.RecommendedValue,
	}
}

// Comparable returns the comparable with the given id.
func (w ValuationWorkup) Comparable(id string) (Comparable, bool) {
	for _, c := range w.Sales.Comparables {
		if c.ID == id {
			return c, true
		}
	}
	return Comparable{}, false
}

// WithComparable returns a copy of w with c appended, or replacing the
// comparable that has the same id. A replaced comparable keeps its Source.
func (w ValuationWorkup) WithComparable(c Comparable) ValuationWorkup {
	comps := make([]Comparable, 0, len(w.Sales.Comparables)+1)
	replaced := false
	for _, existing := range w.Sales.Comparables {
		if existing.ID == c.ID {
			c.Source = existing.Source
			comps = append(comps, c)
			replaced = true
			continue
		}
		comps = append(comps, existing)
	}
	if !replaced {
		comps = append(comps, c)
	}
	w.Sales.Comparables = comps
	return w
}

// WithoutComparable returns a copy of w without the comparable id, and
// whether it was present.
func (w ValuationWorkup) WithoutComparable(id string) (ValuationWorkup, bool) {
	comps := make([]Comparable, 0, len(w.Sales.Comparables))
	found := false
	for _, c := range w.Sales.Comparables {
		if c.ID == id {
			found = true
			continue
		}
		comps = append(comps, c)
	}
	w.Sales.Comparables = comps
	return w, found
}

// DeriveAssessment returns the assessment to propose and the savings
// against the current assessment. Savings are never negative, and a final
// value above the current assessment proposes no change.
func DeriveAssessment(current, final float64) (proposed, savings float64) {
	if final <= 0 || final >= current {
		return current, 0
	}
	return final, current - final
}

// Recompute derives every computed field of w from its inputs: each
// comparable, the three approach values, the final estimate, the proposed
// assessment and savings, the confidence score, and the comparable
// statistics aged against asOf. The argument is not modified, and calling
// Recompute again on the result yields identical values.
func Recompute(w ValuationWorkup, opts Options, asOf time.Time) ValuationWorkup {
	out := w
	out.Sales = SalesApproach(w.Sales.Comparables, w.Subject.SquareFootage)
	out.Cost = CostApproach(w.Cost)
	out.Income = IncomeApproach(w.Income)

	values := out.ApproachValues()
	out.FinalValueEstimate = FinalValue(values, out.Weights, opts)
	out.ProposedAssessment, out.PotentialSavings = DeriveAssessment(w.Subject.CurrentAssessment, out.FinalValueEstimate)
	out.ConfidenceLevel = Confidence(values.Sales, values.Cost, values.Income)
	out.Statistics = Analyze(out.Sales.Comparables, w.Subject, asOf)
	return out
}

package narrative

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evcraddock/tax-appeal/internal/currency"
	"github.com/evcraddock/tax-appeal/internal/valuation"
)

// PromptTemplateVersion changes whenever the prompt wording changes.
const PromptTemplateVersion = "v1"

const systemPrompt = "You are a property tax consultant drafting the narrative section of an assessment appeal. " +
	"Write in plain, factual prose addressed to the review board. Use only the figures provided and do not invent facts."

// Request is the material a narrative is written from.
type Request struct {
	PropertyID int64
	Address    string
	Workup     valuation.ValuationWorkup
	Evidence   []string
}

// Prompt renders the user prompt for req.
func Prompt(req Request) string {
	w := req.Workup
	var b strings.Builder

	fmt.Fprintf(&b, "Subject property: %s\n", req.Address)
	fmt.Fprintf(&b, "Current assessment: %s\n", currency.Whole(w.Subject.CurrentAssessment))
	fmt.Fprintf(&b, "Living area: %.0f sq ft, year built %d\n\n", w.Subject.SquareFootage, w.Subject.YearBuilt)

	fmt.Fprintf(&b, "Sales comparison: %d comparables, average indicated value %s (weight %.0f%%)\n",
		len(w.Sales.Comparables), currency.Whole(w.Sales.AverageValue), w.Weights.Sales)
	fmt.Fprintf(&b, "Cost approach: depreciated value %s (weight %.0f%%)\n",
		currency.Whole(w.Cost.DepreciatedValue), w.Weights.Cost)
	fmt.Fprintf(&b, "Income approach: recommended value %s (weight %.0f%%)\n\n",
		currency.Whole(w.Income.RecommendedValue), w.Weights.Income)

	fmt.Fprintf(&b, "Reconciled market value: %s\n", currency.Whole(w.FinalValueEstimate))
	fmt.Fprintf(&b, "Proposed assessment: %s\n", currency.Whole(w.ProposedAssessment))
	fmt.Fprintf(&b, "Confidence: %.0f/100\n", w.ConfidenceLevel)

	if len(req.Evidence) > 0 {
		b.WriteString("\nOwner evidence:\n")
		for _, e := range req.Evidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	b.WriteString("\nWrite three to five paragraphs arguing for the proposed assessment.")
	return b.String()
}

// PromptVersion identifies a prompt by template version and content, so a
// changed workup misses the cache.
func PromptVersion(prompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\n" + prompt))
	return PromptTemplateVersion + "-" + hex.EncodeToString(sum[:6])
}

// Fallback writes a template narrative from the workup figures.
func Fallback(req Request) string {
	w := req.Workup
	var b strings.Builder

	fmt.Fprintf(&b, "The owner of %s requests that the assessment of %s be reduced to %s.",
		req.Address, currency.Whole(w.Subject.CurrentAssessment), currency.Whole(w.ProposedAssessment))
	b.WriteString(" This figure reconciles three accepted valuation approaches.\n\n")

	fmt.Fprintf(&b, "The sales comparison approach, based on %d comparable sales, indicates %s.",
		len(w.Sales.Comparables), currency.Whole(w.Sales.AverageValue))
	fmt.Fprintf(&b, " The cost approach indicates %s and the income approach indicates %s.\n\n",
		currency.Whole(w.Cost.DepreciatedValue), currency.Whole(w.Income.RecommendedValue))

	fmt.Fprintf(&b, "Weighted %.0f/%.0f/%.0f across sales, cost and income, the approaches reconcile to %s",
		w.Weights.Sales, w.Weights.Cost, w.Weights.Income, currency.Whole(w.FinalValueEstimate))
	fmt.Fprintf(&b, " with a confidence score of %.0f out of 100.", w.ConfidenceLevel)
	if w.PotentialSavings > 0 {
		fmt.Fprintf(&b, " The assessment exceeds this value by %s.", currency.Whole(w.PotentialSavings))
	}
	b.WriteString("\n")

	if len(req.Evidence) > 0 {
		b.WriteString("\nThe owner also submits the following:\n\n")
		for _, e := range req.Evidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}

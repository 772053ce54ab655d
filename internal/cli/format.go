package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/evcraddock/tax-appeal/internal/currency"
	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 100

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// terminalWidth returns the width of stdout, or defaultWidth.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d\n", p.ID)
	fmt.Fprintf(w, "  Address:     %s\n", p.Address)
	if p.ParcelID != "" {
		fmt.Fprintf(w, "  Parcel:      %s\n", p.ParcelID)
	}
	if p.Jurisdiction != "" {
		fmt.Fprintf(w, "  County:      %s\n", p.Jurisdiction)
	}
	if p.SquareFootage > 0 {
		fmt.Fprintf(w, "  Sqft:        %.0f\n", p.SquareFootage)
	}
	if p.LotSize > 0 {
		fmt.Fprintf(w, "  Lot:         %.0f sq ft\n", p.LotSize)
	}
	if p.YearBuilt > 0 {
		fmt.Fprintf(w, "  Built:       %d\n", p.YearBuilt)
	}
	fmt.Fprintf(w, "  Assessment:  %s\n", currency.Whole(p.CurrentAssessment))
	if p.TaxRate > 0 {
		fmt.Fprintf(w, "  Tax rate:    $%g per $1000\n", p.TaxRate)
	}
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tADDRESS\tJURISDICTION\tSQFT\tASSESSMENT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-------\t------------\t----\t----------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		sqft := "-"
		if p.SquareFootage > 0 {
			sqft = fmt.Sprintf("%.0f", p.SquareFootage)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Address, 40), orDefault(p.Jurisdiction, "-"), sqft, currency.Whole(p.CurrentAssessment)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return nil
}

// printComparableTable prints the adjusted comparables of a workup. The
// address column shrinks to fit width.
func printComparableTable(out io.Writer, comps []valuation.Comparable, width int) error {
	if len(comps) == 0 {
		fmt.Fprintln(out, "No comparables.")
		return nil
	}

	addrWidth := width - 80
	if addrWidth < 12 {
		addrWidth = 12
	}
	if addrWidth > 40 {
		addrWidth = 40
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(w, "ID\tADDRESS\tSOLD\tPRICE\tSQFT\tADJ\tADJ $/SQFT\tINDICATED\t"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	for _, c := range comps {
		sold := "-"
		if !c.SaleDate.IsZero() {
			sold = c.SaleDate.Format("2006-01-02")
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%+.1f%%\t%s\t%s\t\n",
			shortID(c.ID), truncate(c.Address, addrWidth), sold, currency.Whole(c.SalePrice),
			c.SquareFootage, c.Adjustments.Total(), currency.Format(c.AdjustedPricePerSqFt),
			currency.Whole(c.IndicatedValue)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return w.Flush()
}

// printWorkup prints the stage, the three approaches and the reconciled
// result.
func printWorkup(w io.Writer, s workflow.Session) {
	wu := s.Workup
	fmt.Fprintf(w, "Stage: %s\n\n", s.Controller.Stage)

	fmt.Fprintln(w, "Approach            Value        Weight")
	fmt.Fprintf(w, "  Sales comparison  %-12s %5.1f%%  (%d comparables)\n",
		currency.Whole(wu.Sales.AverageValue), wu.Weights.Sales, len(wu.Sales.Comparables))
	fmt.Fprintf(w, "  Cost              %-12s %5.1f%%\n", currency.Whole(wu.Cost.DepreciatedValue), wu.Weights.Cost)
	fmt.Fprintf(w, "  Income            %-12s %5.1f%%\n", currency.Whole(wu.Income.RecommendedValue), wu.Weights.Income)
	if wu.Income.CapitalizedValue == nil && wu.Income.GrossRentalIncome > 0 {
		fmt.Fprintln(w, "    (no capitalization rate: direct capitalization skipped)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Final value estimate: %s\n", currency.Whole(wu.FinalValueEstimate))
	fmt.Fprintf(w, "Current assessment:   %s\n", currency.Whole(wu.Subject.CurrentAssessment))
	fmt.Fprintf(w, "Proposed assessment:  %s\n", currency.Whole(wu.ProposedAssessment))
	fmt.Fprintf(w, "Potential savings:    %s\n", currency.Whole(wu.PotentialSavings))
	fmt.Fprintf(w, "Confidence:           %.0f/100\n", wu.ConfidenceLevel)

	if st := wu.Statistics; st.SampleSize > 1 {
		fmt.Fprintf(w, "\nComparable $/sqft: mean %s, std dev %s, CV %.1f%%\n",
			currency.Format(st.MeanPricePerSqFt), currency.Format(st.StandardDeviation), st.CoefficientOfVariation)
	}
}

// printEvidenceList prints evidence notes in text format.
func printEvidenceList(w io.Writer, notes []*evidence.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No evidence.")
		return
	}

	for _, n := range notes {
		author := n.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(w, "[%s] #%d (%s)\n  %s\n\n",
			n.CreatedAt.Format("2006-01-02 15:04"), n.ID, author, n.Text)
	}
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/currency"
	"github.com/evcraddock/tax-appeal/internal/packet"
)

func newSavingsCmd() *cobra.Command {
	var costs packet.Costs

	cmd := &cobra.Command{
		Use:   "savings <property-id>",
		Short: "Project the tax savings of an appeal",
		Long: "Project annual and cumulative tax savings against the cost of appealing, and " +
			"classify the assessment as over, fair or under market value.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.packets.Economics(cmd.Context(), id, costs)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), e)
			}
			printEconomics(cmd.OutOrStdout(), e)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&costs.FilingFee, "filing-fee", 0, "appeal filing fee")
	fl.Float64Var(&costs.AttorneyFee, "attorney-fee", 0, "attorney or agent fee")
	fl.Float64Var(&costs.OtherCosts, "other-costs", 0, "other appeal costs")
	fl.IntVar(&costs.Years, "years", packet.SavingsYears, "years of savings to project")
	fl.Float64Var(&costs.TaxRate, "tax-rate", 0, "tax rate per $1000 (default: the property's rate)")

	return cmd
}

func printEconomics(w io.Writer, e packet.Economics) {
	if c := e.Classification; c != nil {
		fmt.Fprintf(w, "Assessment ratio: %s (%s)\n", c.Ratio.StringFixed(2), c.Decision)
		if c.ReassessmentRisk {
			fmt.Fprintln(w, "  Warning: the assessment is below market value; an appeal may raise it.")
		}
	}

	if e.SavingsError != "" {
		fmt.Fprintf(w, "Savings: %s\n", e.SavingsError)
		return
	}
	s := e.Savings
	if s == nil {
		return
	}

	fmt.Fprintf(w, "Annual tax now:       %s\n", currency.FormatDecimal(s.AnnualTaxCurrent))
	fmt.Fprintf(w, "Annual tax proposed:  %s\n", currency.FormatDecimal(s.AnnualTaxProposed))
	fmt.Fprintf(w, "Annual savings:       %s\n", currency.FormatDecimal(s.AnnualSavings))
	fmt.Fprintf(w, "Appeal costs:         %s\n", currency.FormatDecimal(s.TotalCosts))
	fmt.Fprintf(w, "Net first year:       %s\n", currency.FormatDecimal(s.NetFirstYearSavings))
	fmt.Fprintf(w, "Cumulative savings:   %s\n", currency.FormatDecimal(s.CumulativeSavings))
	if s.PaybackYears != nil {
		fmt.Fprintf(w, "Payback:              %s years\n", s.PaybackYears.StringFixed(1))
	}
	if s.ROIPercent != nil {
		fmt.Fprintf(w, "Return on costs:      %s%%\n", s.ROIPercent.StringFixed(0))
	}
	if s.ValueIncrease {
		fmt.Fprintln(w, "The proposed value is above the current assessment.")
	}
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <property-id>",
		Short: "Start an appeal for a property",
		Long:  "Open a fresh appeal session for a property. Any earlier session is discarded.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				return a.workups.Start(cmd.Context(), id)
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <property-id>",
		Short: "Discard a property's appeal session",
		Args:  cobra.ExactArgs(1),
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

			if err := a.workups.Reset(cmd.Context(), id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"property_id": id,
					"reset":       true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appeal for property #%d reset.\n", id)
			return nil
		},
	}
}

func newWorkupCmd() *cobra.Command {
	var showComps bool

	cmd := &cobra.Command{
		Use:   "workup <property-id>",
		Short: "Show the valuation workup",
		Args:  cobra.ExactArgs(1),
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

			sess, err := a.workups.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, sess)
			}
			printWorkup(out, sess)
			if showComps {
				fmt.Fprintln(out)
				return printComparableTable(out, sess.Workup.Sales.Comparables, terminalWidth())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showComps, "comps", false, "also list the adjusted comparables")
	return cmd
}

func newStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <property-id> <stage|next|prev>",
		Short: "Move an appeal to another workflow stage",
		Long: "Move an appeal to a named stage (selection, sales, cost, income, reconciliation, " +
			"evidence, review) or one step with next and prev.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				sess, err := a.workups.Get(cmd.Context(), id)
				if err != nil {
					return sess, err
				}

				var c workflow.Controller
				switch args[1] {
				case "next":
					c, err = sess.Controller.Next()
				case "prev":
					c, err = sess.Controller.Prev()
				default:
					var st workflow.Stage
					st, err = workflow.ParseStage(args[1])
					c.Stage = st
				}
				if err != nil {
					return workflow.Session{}, err
				}
				return a.workups.SetStage(cmd.Context(), id, c.Stage)
			})
		},
	}
}

func newWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <property-id> <sales|cost|income> <percent>",
		Short: "Set one approach's reconciliation weight",
		Long:  "Set one approach's weight in percent. The other two approaches split the remainder evenly.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			approach, err := valuation.ParseApproach(args[1])
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid weight: %s", args[2])
			}

			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				return a.workups.SetWeight(cmd.Context(), id, approach, value)
			})
		},
	}
}

func newCostCmd() *cobra.Command {
	var d valuation.CostApproachData

	cmd := &cobra.Command{
		Use:   "cost <property-id>",
		Short: "Set cost approach inputs",
		Long:  "Set cost approach inputs. Flags that are not given keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				sess, err := a.workups.Get(cmd.Context(), id)
				if err != nil {
					return sess, err
				}

				cur := sess.Workup.Cost
				flags := cmd.Flags()
				mergeFloat(flags.Changed("land"), &cur.LandValue, d.LandValue)
				mergeFloat(flags.Changed("replacement"), &cur.ReplacementCostNew, d.ReplacementCostNew)
				mergeFloat(flags.Changed("physical"), &cur.PhysicalDepreciation, d.PhysicalDepreciation)
				mergeFloat(flags.Changed("functional"), &cur.FunctionalObsolescence, d.FunctionalObsolescence)
				mergeFloat(flags.Changed("economic"), &cur.EconomicObsolescence, d.EconomicObsolescence)

				return a.workups.SetCost(cmd.Context(), id, cur)
			})
		},
	}

	cmd.Flags().Float64Var(&d.LandValue, "land", 0, "land value")
	cmd.Flags().Float64Var(&d.ReplacementCostNew, "replacement", 0, "replacement cost new")
	cmd.Flags().Float64Var(&d.PhysicalDepreciation, "physical", 0, "physical depreciation")
	cmd.Flags().Float64Var(&d.FunctionalObsolescence, "functional", 0, "functional obsolescence")
	cmd.Flags().Float64Var(&d.EconomicObsolescence, "economic", 0, "economic obsolescence")

	return cmd
}

func newIncomeCmd() *cobra.Command {
	var d valuation.IncomeApproachData

	cmd := &cobra.Command{
		Use:   "income <property-id>",
		Short: "Set income approach inputs",
		Long: "Set income approach inputs. Vacancy and capitalization rates are fractions " +
			"(0.05 for 5%). Flags that are not given keep their current values.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				sess, err := a.workups.Get(cmd.Context(), id)
				if err != nil {
					return sess, err
				}

				cur := sess.Workup.Income
				flags := cmd.Flags()
				mergeFloat(flags.Changed("gross"), &cur.GrossRentalIncome, d.GrossRentalIncome)
				mergeFloat(flags.Changed("vacancy"), &cur.VacancyRate, d.VacancyRate)
				mergeFloat(flags.Changed("expenses"), &cur.OperatingExpenses, d.OperatingExpenses)
				mergeFloat(flags.Changed("cap-rate"), &cur.CapitalizationRate, d.CapitalizationRate)
				mergeFloat(flags.Changed("monthly-rent"), &cur.MonthlyRent, d.MonthlyRent)
				mergeFloat(flags.Changed("grm"), &cur.GrossRentMultiplier, d.GrossRentMultiplier)

				return a.workups.SetIncome(cmd.Context(), id, cur)
			})
		},
	}

	cmd.Flags().Float64Var(&d.GrossRentalIncome, "gross", 0, "annual gross rental income")
	cmd.Flags().Float64Var(&d.VacancyRate, "vacancy", 0, "vacancy rate as a fraction")
	cmd.Flags().Float64Var(&d.OperatingExpenses, "expenses", 0, "annual operating expenses")
	cmd.Flags().Float64Var(&d.CapitalizationRate, "cap-rate", 0, "capitalization rate as a fraction")
	cmd.Flags().Float64Var(&d.MonthlyRent, "monthly-rent", 0, "monthly market rent")
	cmd.Flags().Float64Var(&d.GrossRentMultiplier, "grm", 0, "gross rent multiplier")

	return cmd
}

// runSessionCmd opens the app, applies fn to the property named by idArg and
// prints the resulting session.
func runSessionCmd(cmd *cobra.Command, idArg string, fn func(a *app, id int64) (workflow.Session, error)) error {
	id, err := parseID("property", idArg)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := fn(a, id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), sess)
	}
	printWorkup(cmd.OutOrStdout(), sess)
	return nil
}

func mergeFloat(changed bool, dst *float64, v float64) {
	if changed {
		*dst = v
	}
}

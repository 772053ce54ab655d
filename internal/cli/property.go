package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/workflow"
	"github.com/evcraddock/tax-appeal/internal/workup"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Manage subject properties",
	}
	cmd.AddCommand(
		newPropertyAddCmd(),
		newPropertyListCmd(),
		newPropertyShowCmd(),
		newPropertyRemoveCmd(),
	)
	return cmd
}

// propertyFlags are shared by property add.
type propertyFlags struct {
	parcel       string
	jurisdiction string
	sqft         float64
	lot          float64
	year         int
	assessment   float64
	taxRate      float64
}

func newPropertyAddCmd() *cobra.Command {
	var f propertyFlags

	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a subject property",
		Long:  "Store a property whose assessment you want to appeal.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertyAdd(cmd, strings.Join(args, " "), f)
		},
	}

	cmd.Flags().StringVar(&f.parcel, "parcel", "", "parcel ID")
	cmd.Flags().StringVar(&f.jurisdiction, "jurisdiction", "", "assessing jurisdiction")
	cmd.Flags().Float64Var(&f.sqft, "sqft", 0, "living area in square feet")
	cmd.Flags().Float64Var(&f.lot, "lot", 0, "lot size in square feet")
	cmd.Flags().IntVar(&f.year, "year", 0, "year built")
	cmd.Flags().Float64Var(&f.assessment, "assessment", 0, "current assessed value")
	cmd.Flags().Float64Var(&f.taxRate, "tax-rate", 0, "tax rate in dollars per $1000")
	_ = cmd.MarkFlagRequired("assessment")

	return cmd
}

func runPropertyAdd(cmd *cobra.Command, address string, f propertyFlags) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.properties.Add(&property.Property{
		Address:           address,
		ParcelID:          f.parcel,
		Jurisdiction:      f.jurisdiction,
		SquareFootage:     f.sqft,
		LotSize:           f.lot,
		YearBuilt:         f.year,
		CurrentAssessment: f.assessment,
		TaxRate:           f.taxRate,
	})
	if err != nil {
		return fmt.Errorf("adding property: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, p)
	}

	fmt.Fprintln(out, "Property added.")
	printPropertySummary(out, p)
	return nil
}

func newPropertyListCmd() *cobra.Command {
	var jurisdiction string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			props, err := a.properties.List(property.ListOptions{Jurisdiction: jurisdiction})
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}

	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "only list properties in this jurisdiction")
	return cmd
}

func newPropertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property with its appeal session and evidence",
		Args:  cobra.ExactArgs(1),
		RunE:  runPropertyShow,
	}
}

func runPropertyShow(cmd *cobra.Command, args []string) error {
	id, err := parseID("property", args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.properties.Get(id)
	if err != nil {
		return err
	}

	var sess *workflow.Session
	if s, err := a.workups.Get(cmd.Context(), id); err == nil {
		sess = &s
	} else if !errors.Is(err, workup.ErrNotStarted) {
		return err
	}

	notes, err := a.evidence.ListByPropertyID(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, struct {
			Property *property.Property `json:"property"`
			Session  *workflow.Session  `json:"session"`
			Evidence []*evidence.Note   `json:"evidence"`
		}{p, sess, notes})
	}

	printPropertySummary(out, p)
	fmt.Fprintln(out)
	if sess == nil {
		fmt.Fprintf(out, "No appeal started. Run: ta start %d\n", id)
	} else {
		printWorkup(out, *sess)
	}
	fmt.Fprintf(out, "\nEvidence (%d)\n", len(notes))
	printEvidenceList(out, notes)
	return nil
}

func newPropertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a property",
		Long:  "Remove a property along with its appeal session, evidence and cached narrative.",
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

			if err := a.properties.Remove(id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Property #%d removed.\n", id)
			return nil
		},
	}
}

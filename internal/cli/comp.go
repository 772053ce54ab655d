package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/ingest"
	"github.com/evcraddock/tax-appeal/internal/market"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

func newCompCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comp",
		Short: "Manage comparable sales",
	}
	cmd.AddCommand(
		newCompAddCmd(),
		newCompRemoveCmd(),
		newCompImportCmd(),
		newCompFetchCmd(),
	)
	return cmd
}

// compFlags are the comparable fields settable from the command line.
type compFlags struct {
	price      float64
	date       string
	sqft       float64
	lot        float64
	year       int
	parking    int
	stories    int
	quality    string
	condition  string
	weight     float64
	confidence string
	adj        valuation.Adjustments
}

func (f compFlags) comparable(address string) (valuation.Comparable, error) {
	c := valuation.Comparable{
		Address:             address,
		SalePrice:           f.price,
		SquareFootage:       f.sqft,
		LotSize:             f.lot,
		YearBuilt:           f.year,
		ParkingSpaces:       f.parking,
		StoriesCount:        f.stories,
		ConstructionQuality: valuation.Quality(f.quality),
		ConditionRating:     valuation.Quality(f.condition),
		Weight:              f.weight,
		Confidence:          valuation.ConfidenceTier(f.confidence),
		Adjustments:         f.adj,
	}
	if f.date != "" {
		d, err := time.Parse("2006-01-02", f.date)
		if err != nil {
			return c, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", f.date)
		}
		c.SaleDate = d
	}
	return c, nil
}

func newCompAddCmd() *cobra.Command {
	var f compFlags

	cmd := &cobra.Command{
		Use:   "add <property-id> <address>",
		Short: "Add a comparable sale",
		Long: "Add a comparable sale to an appeal. Adjustments are percentages applied to the " +
			"comparable's price per square foot.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.comparable(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				return a.workups.AddComparable(cmd.Context(), id, c)
			})
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.price, "price", 0, "sale price")
	fl.StringVar(&f.date, "date", "", "sale date (YYYY-MM-DD)")
	fl.Float64Var(&f.sqft, "sqft", 0, "living area in square feet")
	fl.Float64Var(&f.lot, "lot", 0, "lot size in square feet")
	fl.IntVar(&f.year, "year", 0, "year built")
	fl.IntVar(&f.parking, "parking", 0, "parking spaces")
	fl.IntVar(&f.stories, "stories", 0, "number of stories")
	fl.StringVar(&f.quality, "quality", "", "construction quality (poor|fair|average|good|excellent)")
	fl.StringVar(&f.condition, "condition", "", "condition rating (poor|fair|average|good|excellent)")
	fl.Float64Var(&f.weight, "weight", 0, "comparable weight, 0 to 100")
	fl.StringVar(&f.confidence, "confidence", "", "confidence (high|medium|low)")
	fl.Float64Var(&f.adj.Time, "adj-time", 0, "time adjustment percent")
	fl.Float64Var(&f.adj.Location, "adj-location", 0, "location adjustment percent")
	fl.Float64Var(&f.adj.Age, "adj-age", 0, "age adjustment percent")
	fl.Float64Var(&f.adj.Quality, "adj-quality", 0, "quality adjustment percent")
	fl.Float64Var(&f.adj.MarketConditions, "adj-market", 0, "market conditions adjustment percent")
	fl.Float64Var(&f.adj.Financing, "adj-financing", 0, "financing adjustment percent")
	fl.Float64Var(&f.adj.ConditionsOfSale, "adj-sale", 0, "conditions of sale adjustment percent")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newCompRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <property-id> <comparable-id>",
		Short: "Remove a comparable sale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				cid, err := resolveComparableID(cmd, a, id, args[1])
				if err != nil {
					return workflow.Session{}, err
				}
				return a.workups.RemoveComparable(cmd.Context(), id, cid)
			})
		},
	}
}

// resolveComparableID expands the short ID printed by `ta comps` into the
// full comparable ID.
func resolveComparableID(cmd *cobra.Command, a *app, propertyID int64, prefix string) (string, error) {
	sess, err := a.workups.Get(cmd.Context(), propertyID)
	if err != nil {
		return "", err
	}

	var match string
	for _, c := range sess.Workup.Sales.Comparables {
		if c.ID == prefix {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("comparable ID %q is ambiguous", prefix)
			}
			match = c.ID
		}
	}
	if match == "" {
		return prefix, nil
	}
	return match, nil
}

func newCompImportCmd() *cobra.Command {
	var skipInvalid bool

	cmd := &cobra.Command{
		Use:   "import <property-id> <file.csv>",
		Short: "Import comparable sales from a CSV file",
		Long: "Import comparable sales from a CSV file. The header row names the columns; " +
			"a sale price column is required.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := readComparablesFile(cmd, args[1], skipInvalid)
			if err != nil {
				return err
			}
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				return a.workups.ImportComparables(cmd.Context(), id, comps)
			})
		},
	}

	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "import the valid rows and report the rest")
	return cmd
}

// readComparablesFile validates and parses a CSV of comparables. Row errors
// fail the import unless skipInvalid is set, in which case they are written
// to stderr.
func readComparablesFile(cmd *cobra.Command, path string, skipInvalid bool) ([]valuation.Comparable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return nil, errors.New("only CSV files can be imported as comparables")
	}
	if err := ingest.ValidateFile(path, info.Size(), "text/csv"); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	res, err := ingest.ParseComparablesCSV(f)
	if err != nil {
		return nil, err
	}
	if rowErr := res.Err(); rowErr != nil {
		if !skipInvalid {
			return nil, rowErr
		}
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", e)
		}
	}
	if len(res.Comparables) == 0 {
		return nil, errors.New("no comparables found in file")
	}
	return res.Comparables, nil
}

func newCompFetchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch <property-id>",
		Short: "Fetch comparable sales from the market data provider",
		Long: "Fetch recent sales near the property from the configured market data provider. " +
			"Without a provider, clearly labelled demo comparables are used instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCmd(cmd, args[0], func(a *app, id int64) (workflow.Session, error) {
				p, err := a.properties.Get(id)
				if err != nil {
					return workflow.Session{}, err
				}

				res := a.market.FetchComparables(cmd.Context(), market.Request{
					Address:       p.Address,
					SquareFootage: p.SquareFootage,
					Limit:         limit,
				})
				if res.Synthetic {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: using demo comparables (%s)\n", res.Reason)
				}

				return a.workups.ImportComparables(cmd.Context(), id, res.Comparables)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", market.DefaultLimit, "maximum comparables to fetch")
	return cmd
}

func newCompsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comps <property-id>",
		Short: "List a property's comparable sales",
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

			comps := sess.Workup.Sales.Comparables
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), comps)
			}
			return printComparableTable(cmd.OutOrStdout(), comps, terminalWidth())
		},
	}
}

// Package cli defines the cobra command tree for ta.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/db"
	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/logging"
	"github.com/evcraddock/tax-appeal/internal/market"
	"github.com/evcraddock/tax-appeal/internal/narrative"
	"github.com/evcraddock/tax-appeal/internal/packet"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/workup"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ta",
		Short: "Prepare property tax assessment appeals",
		Long: "A tool to value a property by the sales comparison, cost and income approaches, " +
			"reconcile them into a market value estimate, and produce an appeal packet.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid --format %q: must be text or json", flagFormat)
			}
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			logging.Setup(cfg.DevMode)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.tax-appeal/appeals.db)")

	root.AddCommand(
		newPropertyCmd(),
		newStartCmd(),
		newResetCmd(),
		newWorkupCmd(),
		newStageCmd(),
		newWeightCmd(),
		newCostCmd(),
		newIncomeCmd(),
		newCompCmd(),
		newCompsCmd(),
		newEvidenceCmd(),
		newSavingsCmd(),
		newPacketCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// app bundles the services a command needs over one database handle.
type app struct {
	cfg        Config
	db         *sql.DB
	properties *property.Service
	workups    *workup.Service
	evidence   *evidence.Repository
	packets    *packet.Service
	market     *market.Client
}

// openApp opens the database and wires every service.
func openApp() (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	database, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	propRepo := property.NewRepository(database)
	workups := workup.NewService(workup.NewRepository(database), propRepo, cfg.ValuationOptions())
	ev := evidence.NewRepository(database)
	narratives := narrative.NewGenerator(cfg.AnthropicAPIKey, cfg.NarrativeModel, narrative.NewCache(database))

	return &app{
		cfg:        cfg,
		db:         database,
		properties: property.NewService(propRepo),
		workups:    workups,
		evidence:   ev,
		packets:    packet.NewService(propRepo, workups, ev, narratives),
		market:     market.NewClient(cfg.MarketURL, cfg.MarketAPIKey),
	}, nil
}

// Close closes the database, logging any error to stderr.
func (a *app) Close() {
	closeDB(a.db)
}

// openDB opens the SQLite database from the --db flag, the config, or the
// default path, in that order.
func openDB(cfg Config) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// parseID parses a positive numeric ID argument.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}

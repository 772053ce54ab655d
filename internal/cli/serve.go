package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/tax-appeal/internal/telemetry"
	"github.com/evcraddock/tax-appeal/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long:  "Start an HTTP server exposing properties, workups, evidence and packets as a JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv := web.NewServer(database, web.Config{
		Options:        cfg.ValuationOptions(),
		MarketURL:      cfg.MarketURL,
		MarketAPIKey:   cfg.MarketAPIKey,
		AnthropicKey:   cfg.AnthropicAPIKey,
		NarrativeModel: cfg.NarrativeModel,
	})

	if cfg.AnthropicAPIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, packets will use template narratives")
	}
	fmt.Fprintf(os.Stderr, "Serving API on %s\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

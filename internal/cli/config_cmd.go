package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long:  "Show the effective settings (config file plus environment) or change a value in ~/.config/ta/config.yaml.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := resolveConfig()
				if err != nil {
					return err
				}
				return printConfig(cmd.OutOrStdout(), cfg)
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a config file value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := saveConfig(cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s.\n", args[0])
				return nil
			},
		},
	)

	return cmd
}

func printConfig(w io.Writer, cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	shown := struct {
		File                          string `json:"file"`
		DBPath                        string `json:"db_path"`
		DevMode                       bool   `json:"dev_mode"`
		ZeroValueApproachesContribute bool   `json:"zero_value_approaches_contribute"`
		MarketURL                     string `json:"market_url"`
		MarketAPIKey                  string `json:"market_api_key"`
		AnthropicAPIKey               string `json:"anthropic_api_key"`
		NarrativeModel                string `json:"narrative_model"`
		OTLPEndpoint                  string `json:"otlp_endpoint"`
	}{
		File:                          path,
		DBPath:                        cfg.DBPath,
		DevMode:                       cfg.DevMode,
		ZeroValueApproachesContribute: !cfg.ValuationOptions().ExcludeZeroValueApproaches,
		MarketURL:                     cfg.MarketURL,
		MarketAPIKey:                  mask(cfg.MarketAPIKey),
		AnthropicAPIKey:               mask(cfg.AnthropicAPIKey),
		NarrativeModel:                cfg.NarrativeModel,
		OTLPEndpoint:                  cfg.OTLPEndpoint,
	}

	if isJSON() {
		return printJSON(w, shown)
	}

	fmt.Fprintf(w, "Config file:      %s\n", shown.File)
	fmt.Fprintf(w, "  db_path:        %s\n", orDefault(shown.DBPath, "(default)"))
	fmt.Fprintf(w, "  dev_mode:       %t\n", shown.DevMode)
	fmt.Fprintf(w, "  zero_value_approaches_contribute: %t\n", shown.ZeroValueApproachesContribute)
	fmt.Fprintf(w, "  market_url:     %s\n", orDefault(shown.MarketURL, "(demo data)"))
	fmt.Fprintf(w, "  market_api_key: %s\n", orDefault(shown.MarketAPIKey, "(unset)"))
	fmt.Fprintf(w, "  anthropic key:  %s\n", orDefault(shown.AnthropicAPIKey, "(unset, template narratives)"))
	fmt.Fprintf(w, "  narrative_model: %s\n", orDefault(shown.NarrativeModel, "(default)"))
	fmt.Fprintf(w, "  otlp_endpoint:  %s\n", orDefault(shown.OTLPEndpoint, "(unset)"))
	return nil
}

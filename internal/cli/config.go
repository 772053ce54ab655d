package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

// Config holds settings read from the config file and environment.
type Config struct {
	DBPath  string `yaml:"db_path,omitempty"`
	DevMode bool   `yaml:"dev_mode,omitempty"`
	// ZeroValueApproachesContribute keeps zero-valued approaches in the
	// weighted blend. Unset means true.
	ZeroValueApproachesContribute *bool  `yaml:"zero_value_approaches_contribute,omitempty"`
	MarketURL                     string `yaml:"market_url,omitempty"`
	MarketAPIKey                  string `yaml:"market_api_key,omitempty"`
	NarrativeModel                string `yaml:"narrative_model,omitempty"`
	OTLPEndpoint                  string `yaml:"otlp_endpoint,omitempty"`

	// AnthropicAPIKey is only read from ANTHROPIC_API_KEY.
	AnthropicAPIKey string `yaml:"-"`
}

// ValuationOptions maps the config onto reconciliation options.
func (c Config) ValuationOptions() valuation.Options {
	contribute := c.ZeroValueApproachesContribute == nil || *c.ZeroValueApproachesContribute
	return valuation.Options{ExcludeZeroValueApproaches: !contribute}
}

// configKeys are the keys `ta config set` accepts.
var configKeys = []string{
	"db_path",
	"dev_mode",
	"zero_value_approaches_contribute",
	"market_url",
	"market_api_key",
	"narrative_model",
	"otlp_endpoint",
}

// Set assigns a config value by its YAML key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "db_path":
		c.DBPath = value
	case "dev_mode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("dev_mode must be true or false")
		}
		c.DevMode = b
	case "zero_value_approaches_contribute":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("zero_value_approaches_contribute must be true or false")
		}
		c.ZeroValueApproachesContribute = &b
	case "market_url":
		c.MarketURL = value
	case "market_api_key":
		c.MarketAPIKey = value
	case "narrative_model":
		c.NarrativeModel = value
	case "otlp_endpoint":
		c.OTLPEndpoint = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(configKeys, ", "))
	}
	return nil
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ta", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// resolveConfig loads the config file and applies environment overrides.
func resolveConfig() (Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Config{}, err
	}

	if v := os.Getenv("TA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TA_DEV_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("TA_DEV_MODE must be true or false")
		}
		cfg.DevMode = b
	}
	if v := os.Getenv("TA_MARKET_URL"); v != "" {
		cfg.MarketURL = v
	}
	if v := os.Getenv("TA_MARKET_API_KEY"); v != "" {
		cfg.MarketAPIKey = v
	}
	if v := os.Getenv("TA_NARRATIVE_MODEL"); v != "" {
		cfg.NarrativeModel = v
	}
	if v := os.Getenv("TA_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	return cfg, nil
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

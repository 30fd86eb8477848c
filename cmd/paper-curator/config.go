// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-curator/internal/secrets"
	"github.com/pdiddy/paper-curator/internal/store"
	"github.com/pdiddy/paper-curator/internal/summarize"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// appConfig is the full configuration file layout.
type appConfig struct {
	Scoring  types.ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Arxiv    types.ArxivConfig    `yaml:"arxiv" mapstructure:"arxiv"`
	Summary  types.SummaryConfig  `yaml:"summary" mapstructure:"summary"`
	Store    types.StoreConfig    `yaml:"store" mapstructure:"store"`
	Curation types.CurationConfig `yaml:"curation" mapstructure:"curation"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Scoring: types.DefaultScoringConfig(),
		Arxiv: types.ArxivConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 30 * time.Second},
			Categories: []string{"cs.CL", "cs.AI", "cs.LG"},
			MaxResults: 10,
		},
		Summary: types.SummaryConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 30 * time.Second},
			Model:      summarize.DefaultModel,
			MaxLength:  summarize.DefaultMaxLength,
			MinLength:  summarize.DefaultMinLength,
		},
		Store: types.StoreConfig{Path: store.DefaultPath},
		Curation: types.CurationConfig{
			MinRelevance: 0.4,
			DaysBack:     7,
			RequestDelay: 3 * time.Second,
		},
	}
}

// loadConfig decodes v over the defaults. Lists and maps given in the file
// replace the default ones rather than merging with them. Secrets fill the
// summarization token when it is empty and the Ollama host when it is left
// at its default.
func loadConfig(v *viper.Viper, loaded map[string]string) (appConfig, error) {
	defaults := defaultAppConfig()
	if err := registerDefaults(v, defaults); err != nil {
		return defaults, err
	}

	cfg := defaultAppConfig()
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})
	if err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Summary.Token == "" {
		cfg.Summary.Token = secrets.Resolve(loaded, secrets.HuggingFaceToken)
	}
	if host := secrets.Resolve(loaded, secrets.OllamaHost); host != "" && cfg.Scoring.OllamaHost == defaults.Scoring.OllamaHost {
		cfg.Scoring.OllamaHost = host
	}
	return cfg, nil
}

// registerDefaults makes every configuration key known to v so that
// PAPER_CURATOR_* environment variables reach Unmarshal. Maps and lists are
// registered whole, so a map in the file replaces the default map.
func registerDefaults(v *viper.Viper, cfg appConfig) error {
	var tree map[string]any
	if err := mapstructure.Decode(cfg, &tree); err != nil {
		return fmt.Errorf("encoding configuration defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, prefix+key+".", sub)
			continue
		}
		v.SetDefault(prefix+key, val)
	}
}

// validate reports every configuration problem, not just the first.
func (c appConfig) validate() error {
	return errors.Join(c.Scoring.Validate(), c.Curation.Validate())
}

// currentConfig loads the configuration for a running command.
func currentConfig() (appConfig, error) {
	return loadConfig(viper.GetViper(), loadedSecrets)
}

// --- config command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after merging defaults, the config file,
environment variables and secrets. Tokens are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and report problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration ok (weights sum to %.3f)\n", cfg.Scoring.WeightSum())
		return nil
	},
}

func writeConfig(w io.Writer, cfg appConfig) error {
	if cfg.Summary.Token != "" {
		cfg.Summary.Token = "<redacted>"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return enc.Close()
}

func init() {
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

// mustValidConfig loads the configuration and rejects invalid ones.
func mustValidConfig() (appConfig, error) {
	cfg, err := currentConfig()
	if err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration; run 'paper-curator config validate'")
		return cfg, err
	}
	return cfg, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-curator CLI.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-curator/internal/httputil"
	"github.com/pdiddy/paper-curator/internal/logging"
	"github.com/pdiddy/paper-curator/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is configured from --log-level before any subcommand runs.
var logger = logging.Discard()

// rootCmd is the base command for the paper-curator CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-curator",
	Short: "Fetch, score and summarize new research papers",
	Long: `paper-curator fetches recent arXiv papers, scores their relevance with an
ensemble of strategies (keyword, citation, temporal, author and an optional
local LLM) and summarizes the relevant ones.

Scoring is configured in the scoring: section of paper-curator.yaml; every
key can also be set through PAPER_CURATOR_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		asJSON, _ := cmd.Flags().GetBool("log-json")
		logger = logging.New(logging.Options{Level: level, JSON: asJSON})
		httputil.SetLogger(logger.WithPrefix("http"))

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-curator.yaml or ~/.config/paper-curator/paper-curator.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("log-json", false, "emit logs as JSON lines")
	pf.String("db", "", "SQLite database path (default data/papers.db)")
	pf.String("secrets-dir", ".secrets/", "directory of secret files (huggingface-token, ollama-host)")

	viper.BindPFlag("store.path", pf.Lookup("db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configure(viper.GetViper(), cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			log.Warn("could not read config file", "path", cfgFile, "err", err)
		}
	}
}

// configure sets config file lookup and environment binding on v.
func configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("paper-curator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "paper-curator"))
		}
	}

	v.SetEnvPrefix("PAPER_CURATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The conventional Ollama variables are honoured as well.
	v.BindEnv("scoring.ollama_host", "PAPER_CURATOR_SCORING_OLLAMA_HOST", "OLLAMA_HOST")
	v.BindEnv("scoring.ollama_model", "PAPER_CURATOR_SCORING_OLLAMA_MODEL", "OLLAMA_MODEL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

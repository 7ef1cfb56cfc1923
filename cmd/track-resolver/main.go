// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the track-resolver CLI. It wires
// the resolution engine (source fan-out, candidate matching, metadata
// merging, quality assessment, acquisition ranking) and the local
// library store behind cobra commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/track-resolver/internal/secrets"
	"github.com/pdiddy/track-resolver/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the track-resolver CLI.
var rootCmd = &cobra.Command{
	Use:   "track-resolver",
	Short: "Resolve loose track queries into verified metadata records",
	Long: `track-resolver takes a loose "artist - title" query, fans it out to
music metadata sources (MusicBrainz, Deezer, iTunes), reconciles the
answers into a single merged record with per-field provenance, scores
the result, and ranks the ways to acquire the track.

Each concern is a subcommand: resolve runs the pipeline, sources lists
the configured adapters, and library manages the local collection used
for upgrade detection.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
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
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./track-resolver.yaml or ~/.config/track-resolver/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("track-resolver")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "track-resolver"))
		}
	}

	viper.SetEnvPrefix("TRACK_RESOLVER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// resolverConfig builds the effective configuration: defaults, then the
// discovered YAML config file, then environment overrides.
func resolverConfig() (types.ResolverConfig, error) {
	cfg := types.DefaultResolverConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if v := viper.GetString("library_path"); v != "" {
		cfg.LibraryPath = v
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

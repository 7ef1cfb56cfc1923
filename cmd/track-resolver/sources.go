// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured metadata sources",
	Long: `Sources lists every configured metadata source with its enablement,
overall reliability, rate limit, and acquisition-ranking priority.
Reliability weights are per field category in the config file; the
table shows the category mean.`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Sources)
	}

	fmt.Printf("%-14s  %-8s  %-11s  %-10s  %s\n",
		"Source", "Enabled", "Reliability", "Rate", "Priority")
	fmt.Println(strings.Repeat("-", 60))
	for _, name := range names {
		sc := cfg.Sources[name]
		rate := "unlimited"
		if sc.RequestsPerSec > 0 {
			rate = fmt.Sprintf("%.1f/s", sc.RequestsPerSec)
		}
		fmt.Printf("%-14s  %-8t  %-11.2f  %-10s  %d\n",
			name, sc.Enabled, sc.Reliability.Overall(), rate, sc.Priority)
	}
	return nil
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output source configuration as JSON")

	rootCmd.AddCommand(sourcesCmd)
}

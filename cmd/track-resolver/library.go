// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/track-resolver/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local track collection",
	Long: `Library manages the local SQLite collection of owned tracks. The
collection powers upgrade detection during resolution: when a resolved
track is already owned, the context reports whether any acquisition
option beats the owned copy's quality.`,
}

// --- add subcommand ---

var libraryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update an owned track",
	Long: `Add records an owned track with its format. The quality score comes
from the configured quality scale for that format. Re-adding a track
(same artist and title, ignoring case and diacritics) replaces its
format and quality.`,
	RunE: runLibraryAdd,
}

func runLibraryAdd(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	artist, _ := cmd.Flags().GetString("artist")
	title, _ := cmd.Flags().GetString("title")
	isrc, _ := cmd.Flags().GetString("isrc")
	format, _ := cmd.Flags().GetString("format")

	quality, ok := cfg.Rank.QualityScale[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unknown format %q: configure it under rank.quality_scale", format)
	}

	track := library.OwnedTrack{
		Artist:       artist,
		Title:        title,
		ISRC:         isrc,
		Format:       strings.ToLower(format),
		QualityScore: quality,
	}
	if err := store.AddOwned(context.Background(), track); err != nil {
		return err
	}
	fmt.Printf("added: %s - %s (%s, quality %d)\n", artist, title, track.Format, quality)
	return nil
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owned tracks",
	RunE:  runLibraryList,
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	tracks, err := store.ListOwned(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatOwnedTracks(tracks, jsonOutput)
}

// --- upgrades subcommand ---

var libraryUpgradesCmd = &cobra.Command{
	Use:   "upgrades",
	Short: "List owned tracks worth re-resolving for a better copy",
	Long: `Upgrades lists owned tracks whose quality score falls below the
threshold, worst first. Run resolve on these to find acquisition
options that beat the owned copy.`,
	RunE: runLibraryUpgrades,
}

func runLibraryUpgrades(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	below, _ := cmd.Flags().GetInt("below")
	tracks, err := store.UpgradeCandidates(context.Background(), below)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatOwnedTracks(tracks, jsonOutput)
}

// --- resolutions subcommand ---

var libraryResolutionsCmd = &cobra.Command{
	Use:   "resolutions",
	Short: "List saved resolutions",
	RunE:  runLibraryResolutions,
}

func runLibraryResolutions(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.ListResolutions(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(saved)
	}

	if len(saved) == 0 {
		fmt.Println("No saved resolutions.")
		return nil
	}

	fmt.Printf("%-38s  %-20s  %-28s  %-10s  %-6s  %s\n",
		"ID", "Artist", "Title", "Status", "Compl", "Conf")
	fmt.Println(strings.Repeat("-", 115))
	for _, r := range saved {
		fmt.Printf("%-38s  %-20s  %-28s  %-10s  %-6.2f  %.2f\n",
			r.ID, truncate(r.Artist, 20), truncate(r.Title, 28),
			r.Status, r.Completeness, r.Confidence)
	}
	fmt.Printf("\n%d resolution(s)\n", len(saved))
	return nil
}

// --- shared helpers ---

func formatOwnedTracks(tracks []library.OwnedTrack, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tracks)
	}

	if len(tracks) == 0 {
		fmt.Println("No tracks.")
		return nil
	}

	fmt.Printf("%-20s  %-32s  %-13s  %-9s  %s\n",
		"Artist", "Title", "ISRC", "Format", "Quality")
	fmt.Println(strings.Repeat("-", 90))
	for _, t := range tracks {
		fmt.Printf("%-20s  %-32s  %-13s  %-9s  %d\n",
			truncate(t.Artist, 20), truncate(t.Title, 32), t.ISRC, t.Format, t.QualityScore)
	}
	fmt.Printf("\n%d track(s)\n", len(tracks))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	libraryAddCmd.Flags().String("artist", "", "artist name (required)")
	libraryAddCmd.Flags().String("title", "", "track title (required)")
	libraryAddCmd.Flags().String("isrc", "", "ISRC of the owned recording")
	libraryAddCmd.Flags().String("format", "unknown", "audio format (e.g. flac, mp3-320)")
	libraryAddCmd.MarkFlagRequired("artist")
	libraryAddCmd.MarkFlagRequired("title")

	libraryListCmd.Flags().Bool("json", false, "output tracks as JSON")

	libraryUpgradesCmd.Flags().Int("below", 80, "quality threshold: list tracks scoring below this")
	libraryUpgradesCmd.Flags().Bool("json", false, "output tracks as JSON")

	libraryResolutionsCmd.Flags().Bool("json", false, "output resolutions as JSON")

	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryUpgradesCmd)
	libraryCmd.AddCommand(libraryResolutionsCmd)

	rootCmd.AddCommand(libraryCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/track-resolver/internal/library"
	"github.com/pdiddy/track-resolver/internal/rank"
	"github.com/pdiddy/track-resolver/internal/resolve"
	"github.com/pdiddy/track-resolver/internal/source"
	"github.com/pdiddy/track-resolver/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [artist - title]",
	Short: "Resolve a track query into a merged metadata record",
	Long: `Resolve fans a track query out to the configured metadata sources,
clusters the answers by recording identity, reconciles conflicting
fields into one record with per-field provenance, scores the result,
and ranks acquisition options.

The query is either a positional "artist - title" pair or the --artist
and --title flags; --album, --year, --duration and --genre narrow the
search. A failed or thin resolution is reported through the context
status (solved, partial, unresolved), not as a command error.`,
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolverConfig()
	if err != nil {
		return err
	}

	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	adapters := source.FromConfig(cfg, secretDefault("musicbrainz-contact", ""))
	engine := resolve.New(cfg, adapters, os.Stderr)

	ctx := context.Background()

	// The library store is optional: without it resolution still runs,
	// only upgrade detection and --save are unavailable.
	store, storeErr := library.Open(cfg.LibraryPath)
	if storeErr == nil {
		defer store.Close()
		engine.OwnedQuality = func(record *types.MergedRecord) int {
			if score, ok := store.OwnedQuality(ctx, record); ok {
				return score
			}
			return rank.NotOwned
		}
	} else {
		fmt.Fprintf(os.Stderr, "warning: library unavailable: %v\n", storeErr)
	}

	quick, _ := cmd.Flags().GetBool("quick")
	sources, _ := cmd.Flags().GetStringSlice("sources")

	var rc *types.ResearchContext
	if quick || len(sources) > 0 {
		rc, err = engine.ResolveQuick(ctx, query, sources...)
	} else {
		rc, err = engine.Resolve(ctx, query)
	}
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if storeErr != nil {
			return fmt.Errorf("cannot save: %w", storeErr)
		}
		if err := store.SaveResolution(ctx, rc); err != nil {
			fmt.Fprintf(os.Stderr, "warning: not saved: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "saved resolution %s\n", rc.ID)
		}
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		if err := exportRecord(rc, exportPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported record to %s\n", exportPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rc)
	}

	showConflicts, _ := cmd.Flags().GetBool("conflicts")
	formatContext(rc, showConflicts)
	return nil
}

// queryFromFlags builds the TrackQuery from a positional "artist - title"
// pair or the individual flags; flags win over the positional form.
func queryFromFlags(cmd *cobra.Command, args []string) (types.TrackQuery, error) {
	var q types.TrackQuery

	if len(args) > 0 {
		joined := strings.Join(args, " ")
		artist, title, ok := strings.Cut(joined, " - ")
		if !ok {
			return q, fmt.Errorf("positional query must look like %q", "artist - title")
		}
		q.ArtistHint = strings.TrimSpace(artist)
		q.TitleHint = strings.TrimSpace(title)
	}

	if v, _ := cmd.Flags().GetString("artist"); v != "" {
		q.ArtistHint = v
	}
	if v, _ := cmd.Flags().GetString("title"); v != "" {
		q.TitleHint = v
	}
	q.AlbumHint, _ = cmd.Flags().GetString("album")
	q.GenreHint, _ = cmd.Flags().GetString("genre")
	q.YearHint, _ = cmd.Flags().GetInt("year")
	q.DurationHint, _ = cmd.Flags().GetInt("duration")

	q.Requirements.MinCompleteness, _ = cmd.Flags().GetFloat64("min-completeness")
	q.Requirements.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")

	if q.IsEmpty() {
		return q, fmt.Errorf("query is empty: provide %q or --artist/--title", "artist - title")
	}
	return q, nil
}

// displayFields is the CLI's field order for the merged-record table.
var displayFields = []types.Field{
	types.FieldTitle, types.FieldArtist, types.FieldAlbum,
	types.FieldGenre, types.FieldLabel, types.FieldBPM, types.FieldKey,
	types.FieldDuration, types.FieldYear, types.FieldISRC,
	types.FieldCatalogNumber,
}

func formatContext(rc *types.ResearchContext, showConflicts bool) {
	fmt.Printf("status: %s", rc.Status)
	if rc.Reason != "" {
		fmt.Printf(" (%s)", rc.Reason)
	}
	fmt.Printf("  rounds: %d  sources queried: %d results\n", rc.Rounds, len(rc.Raw))

	if rc.Quality != nil {
		fmt.Printf("quality: completeness %.2f, confidence %.2f, %d source(s)\n",
			rc.Quality.Completeness, rc.Quality.Confidence, rc.Quality.DistinctSourceCount)
		if len(rc.Quality.MissingFields) > 0 {
			fmt.Printf("missing: %s\n", joinFields(rc.Quality.MissingFields))
		}
	}

	if rc.Record != nil {
		fmt.Printf("\n%-15s  %-32s  %-10s  %-25s  %s\n",
			"Field", "Value", "Conf", "Method", "Sources")
		fmt.Println(strings.Repeat("-", 105))
		for _, f := range displayFields {
			if !rc.Record.Has(f) {
				continue
			}
			p := rc.Record.Provenance[f]
			value := rc.Record.FieldValue(f)
			if len(value) > 32 {
				value = value[:29] + "..."
			}
			fmt.Printf("%-15s  %-32s  %-10.2f  %-25s  %s\n",
				f, value, p.Confidence, p.Method, strings.Join(p.Sources, ","))
		}
		if len(rc.Record.SecondaryGenres) > 0 {
			fmt.Printf("\nsecondary genres: %s\n", strings.Join(rc.Record.SecondaryGenres, ", "))
		}
	}

	if showConflicts && len(rc.Conflicts) > 0 {
		fmt.Printf("\nconflicts (%d):\n", len(rc.Conflicts))
		for _, c := range rc.Conflicts {
			fmt.Printf("  %-15s  chose %q (%s)\n", c.Field, c.Chosen, c.Reason)
			for _, r := range c.Rejected {
				fmt.Printf("  %-15s  rejected %q from %s (weight %.2f)\n", "", r.Value, r.Source, r.Weight)
			}
		}
	}

	if len(rc.Acquisitions) > 0 {
		fmt.Printf("\nacquisition options")
		if rc.UpgradeAvailable {
			fmt.Printf(" (upgrade available)")
		}
		fmt.Println(":")
		fmt.Printf("%-4s  %-12s  %-9s  %-7s  %-10s  %s\n",
			"Rank", "Source", "Kind", "Quality", "Price", "Locator")
		fmt.Println(strings.Repeat("-", 95))
		for i, opt := range rc.Acquisitions {
			locator := opt.Locator
			if len(locator) > 44 {
				locator = locator[:41] + "..."
			}
			fmt.Printf("%-4d  %-12s  %-9s  %-7d  %-10s  %s\n",
				i+1, opt.Source, opt.Kind, opt.QualityScore, opt.Price, locator)
		}
	}

	if len(rc.Alternates) > 0 {
		fmt.Printf("\nalternate versions (%d):\n", len(rc.Alternates))
		for i, alt := range rc.Alternates {
			head := alt.Results[0].Fields
			fmt.Printf("  %d. %s - %s (%ds, sources: %s)\n",
				i+1, head.Artist, head.Title, head.DurationSec,
				strings.Join(alt.Sources(), ","))
		}
	}
}

func joinFields(fields []types.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// exportRecord writes the merged record as YAML.
func exportRecord(rc *types.ResearchContext, path string) error {
	if rc.Record == nil {
		return fmt.Errorf("nothing to export: no merged record")
	}
	data, err := yaml.Marshal(rc.Record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	resolveCmd.Flags().String("artist", "", "artist name hint")
	resolveCmd.Flags().String("title", "", "track title hint")
	resolveCmd.Flags().String("album", "", "album hint to narrow the search")
	resolveCmd.Flags().String("genre", "", "genre hint")
	resolveCmd.Flags().Int("year", 0, "expected release year")
	resolveCmd.Flags().Int("duration", 0, "expected length in seconds; picks between versions of a track")
	resolveCmd.Flags().Float64("min-completeness", 0, "override the solved completeness threshold")
	resolveCmd.Flags().Float64("min-confidence", 0, "override the solved confidence threshold")
	resolveCmd.Flags().Bool("quick", false, "single collection round, no widened retries")
	resolveCmd.Flags().StringSlice("sources", nil, "restrict the fan-out to these sources")
	resolveCmd.Flags().Bool("json", false, "output the full research context as JSON")
	resolveCmd.Flags().Bool("conflicts", false, "show the per-field conflict report")
	resolveCmd.Flags().Bool("save", false, "persist a solved or partial resolution to the library")
	resolveCmd.Flags().String("export", "", "write the merged record as YAML to this path")

	rootCmd.AddCommand(resolveCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders acquisition options by audio quality. The scale
// runs 0-100: lossless at the top, lossy bitrate tiers below, unknown
// stream rips near the bottom, corrupt at zero. Everything except the
// owned-quality comparison is pure ranking.
package rank

import (
	"sort"
	"strings"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// NotOwned marks the ownedQuality argument when the caller does not own
// the track; no upgrade flag can be emitted then.
const NotOwned = -1

// Priorities maps source names to ranking priority; lower wins ties.
type Priorities map[string]int

// Rank collects every acquisition link surfaced by the cluster's
// results, scores each on the configured quality scale, and orders the
// options best first: quality descending, then source priority
// ascending. The second return reports whether the best option strictly
// beats the quality of the copy the caller already owns.
func Rank(cluster types.Cluster, cfg types.RankConfig, priorities Priorities, ownedQuality int) ([]types.AcquisitionOption, bool) {
	var options []types.AcquisitionOption
	for _, r := range cluster.Results {
		for _, link := range r.Fields.Links {
			options = append(options, types.AcquisitionOption{
				Source:       r.Source,
				Kind:         link.Kind,
				QualityScore: Score(cfg, link),
				Locator:      link.URL,
				Price:        link.Price,
			})
		}
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].QualityScore != options[j].QualityScore {
			return options[i].QualityScore > options[j].QualityScore
		}
		pi, pj := priorities[options[i].Source], priorities[options[j].Source]
		if pi != pj {
			return pi < pj
		}
		return options[i].Source < options[j].Source
	})

	upgrade := len(options) > 0 &&
		ownedQuality != NotOwned &&
		options[0].QualityScore > ownedQuality
	return options, upgrade
}

// Score places one link on the quality scale. An explicit format wins;
// otherwise the bitrate picks a lossy tier; a stream link with no
// format information lands on the "stream" tier; anything else is
// unknown.
func Score(cfg types.RankConfig, link types.AcquisitionLink) int {
	if link.Format != "" {
		if score, ok := cfg.QualityScale[strings.ToLower(link.Format)]; ok {
			return score
		}
	}

	if link.BitrateKbps > 0 {
		if tier, ok := bitrateTier(link.BitrateKbps); ok {
			if score, ok := cfg.QualityScale[tier]; ok {
				return score
			}
		}
	}

	tier := "unknown"
	if link.Kind == types.KindStream {
		tier = "stream"
	}
	if score, ok := cfg.QualityScale[tier]; ok {
		return score
	}
	return 0
}

// bitrateTier maps an MP3/AAC bitrate onto the nearest named tier.
func bitrateTier(kbps int) (string, bool) {
	switch {
	case kbps >= 320:
		return "mp3-320", true
	case kbps >= 256:
		return "mp3-256", true
	case kbps >= 192:
		return "mp3-192", true
	case kbps >= 128:
		return "mp3-128", true
	default:
		return "", false
	}
}

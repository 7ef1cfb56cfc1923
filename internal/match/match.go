// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match groups raw source results into candidate clusters, each
// representing one physical recording. Results that are textually
// similar but differ in duration stay apart as distinct versions
// (radio edit vs. extended mix); an exact identifier match overrides
// everything else.
package match

import (
	"math"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// Weights maps source names to their overall reliability, used to rank
// clusters against each other.
type Weights map[string]float64

// Cluster partitions results into disjoint candidate clusters. Two
// results join only when their combined evidence (normalized textual
// similarity plus duration proximity) reaches cfg.IdentityThreshold, or
// when they share an exact identifier. Output is ordered by aggregate
// source reliability, best first.
func Cluster(results []types.PlatformResult, weights Weights, cfg types.MatcherConfig) []types.Cluster {
	if len(results) == 0 {
		return nil
	}

	// Stable input order keeps clustering deterministic regardless of
	// fan-out arrival order.
	sorted := make([]types.PlatformResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Fields.Title < sorted[j].Fields.Title
	})

	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) { parent[find(i)] = find(j) }

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			score, exact := Evidence(sorted[i].Fields, sorted[j].Fields, cfg)
			if exact || score >= cfg.IdentityThreshold {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range sorted {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	var clusters []types.Cluster
	for _, members := range groups {
		clusters = append(clusters, buildCluster(sorted, members, weights, cfg))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].AggregateReliability != clusters[j].AggregateReliability {
			return clusters[i].AggregateReliability > clusters[j].AggregateReliability
		}
		if clusters[i].IdentityScore != clusters[j].IdentityScore {
			return clusters[i].IdentityScore > clusters[j].IdentityScore
		}
		return clusters[i].Results[0].Source < clusters[j].Results[0].Source
	})
	return clusters
}

// Evidence scores how strongly two results describe the same recording,
// in [0,1]. The exact return is true when the results share a non-empty
// ISRC or catalog number, which merges them regardless of textual
// similarity or duration.
func Evidence(a, b types.RawFields, cfg types.MatcherConfig) (score float64, exact bool) {
	if a.ISRC != "" && a.ISRC == b.ISRC {
		return 1, true
	}
	if a.CatalogNumber != "" && a.CatalogNumber == b.CatalogNumber {
		return 1, true
	}

	// Duration mismatch beyond the reject window is strong negative
	// evidence: same text with double the length is an extended mix.
	durDiff := -1
	if a.DurationSec > 0 && b.DurationSec > 0 {
		durDiff = int(math.Abs(float64(a.DurationSec - b.DurationSec)))
		if durDiff > cfg.DurationRejectSec {
			return 0, false
		}
	}

	jw := metrics.NewJaroWinkler()
	titleSim := strutil.Similarity(Normalize(a.Title), Normalize(b.Title), jw)
	artistSim := strutil.Similarity(Normalize(a.Artist), Normalize(b.Artist), jw)
	score = 0.65*titleSim + 0.35*artistSim

	if durDiff >= 0 && durDiff <= cfg.DurationStrongSec {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score, false
}

func buildCluster(all []types.PlatformResult, members []int, weights Weights, cfg types.MatcherConfig) types.Cluster {
	results := make([]types.PlatformResult, 0, len(members))
	for _, idx := range members {
		results = append(results, all[idx])
	}

	// Members ordered by source reliability so the merger sees the most
	// trusted result first.
	sort.SliceStable(results, func(i, j int) bool {
		wi, wj := weights[results[i].Source], weights[results[j].Source]
		if wi != wj {
			return wi > wj
		}
		return results[i].Source < results[j].Source
	})

	c := types.Cluster{
		Results:       results,
		IdentityScore: identityScore(results, cfg),
		SharedISRC:    sharedISRC(results),
	}

	seen := make(map[string]bool)
	for _, r := range results {
		if !seen[r.Source] {
			seen[r.Source] = true
			c.AggregateReliability += weights[r.Source]
		}
	}
	return c
}

// identityScore is the mean pairwise evidence among members; a
// singleton cluster trivially identifies itself.
func identityScore(results []types.PlatformResult, cfg types.MatcherConfig) float64 {
	if len(results) < 2 {
		return 1
	}
	var sum float64
	var pairs int
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			score, exact := Evidence(results[i].Fields, results[j].Fields, cfg)
			if exact {
				score = 1
			}
			sum += score
			pairs++
		}
	}
	return sum / float64(pairs)
}

// sharedISRC returns the ISRC when every member that carries one
// agrees; disagreement or absence yields empty.
func sharedISRC(results []types.PlatformResult) string {
	var isrc string
	for _, r := range results {
		if r.Fields.ISRC == "" {
			continue
		}
		if isrc == "" {
			isrc = r.Fields.ISRC
		} else if isrc != r.Fields.ISRC {
			return ""
		}
	}
	return isrc
}

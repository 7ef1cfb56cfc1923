// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assess scores a merged record's completeness and confidence
// and classifies it against configured thresholds. Thresholds and field
// weights come from configuration because they vary by use case: a DJ
// cataloguing workflow weights tempo and key far above descriptive text.
package assess

import (
	"sort"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// Assess computes a fresh QualityReport for a record. A nil record or
// one populating no required field classifies as unresolved. The
// requirements argument carries caller overrides; zero values fall back
// to cfg.
func Assess(record *types.MergedRecord, cfg types.AssessConfig, reqs types.Requirements) types.QualityReport {
	required := cfg.RequiredFields
	if len(reqs.RequiredFields) > 0 {
		required = reqs.RequiredFields
	}
	minCompleteness := cfg.CompletenessThreshold
	if reqs.MinCompleteness > 0 {
		minCompleteness = reqs.MinCompleteness
	}
	minConfidence := cfg.ConfidenceThreshold
	if reqs.MinConfidence > 0 {
		minConfidence = reqs.MinConfidence
	}

	report := types.QualityReport{Status: types.StatusUnresolved}
	if record == nil || len(required) == 0 {
		return report
	}

	populated := 0
	for _, f := range required {
		if record.Has(f) {
			populated++
		} else {
			report.MissingFields = append(report.MissingFields, f)
		}
	}
	report.Completeness = float64(populated) / float64(len(required))

	// Confidence is the importance-weighted mean over populated fields,
	// required or not: extra corroborated fields never hurt. Fields are
	// visited in sorted order so the floating-point sum is reproducible.
	fields := make([]types.Field, 0, len(record.Provenance))
	for f := range record.Provenance {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	var weighted, weightSum float64
	sources := make(map[string]bool)
	for _, f := range fields {
		prov := record.Provenance[f]
		w := fieldWeight(cfg, f)
		weighted += prov.Confidence * w
		weightSum += w
		for _, s := range prov.Sources {
			sources[s] = true
		}
	}
	if weightSum > 0 {
		report.Confidence = weighted / weightSum
	}
	report.DistinctSourceCount = len(sources)

	switch {
	case report.Completeness == 0:
		report.Status = types.StatusUnresolved
	case report.Completeness >= minCompleteness &&
		report.Confidence >= minConfidence &&
		report.DistinctSourceCount >= cfg.MinSources:
		report.Status = types.StatusSolved
	default:
		report.Status = types.StatusPartial
	}
	return report
}

func fieldWeight(cfg types.AssessConfig, f types.Field) float64 {
	if w, ok := cfg.FieldWeights[f]; ok {
		return w
	}
	return 1
}

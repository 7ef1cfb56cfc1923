// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge reconciles a candidate cluster into one canonical
// MergedRecord with per-field provenance. Merging is a pure function of
// the cluster and the reliability lookup: no I/O, no side effects, same
// inputs always produce the same record and conflict report.
package merge

import (
	"sort"
	"strconv"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// Reliability looks up a source's weight for a field category. The
// orchestrator derives one from configuration; tests pass literals.
type Reliability func(source string, cat types.FieldCategory) float64

// mergedFields is the order fields are resolved and reported in.
var mergedFields = []types.Field{
	types.FieldTitle,
	types.FieldArtist,
	types.FieldAlbum,
	types.FieldGenre,
	types.FieldLabel,
	types.FieldBPM,
	types.FieldKey,
	types.FieldDuration,
	types.FieldYear,
	types.FieldISRC,
	types.FieldCatalogNumber,
}

// Merger resolves clusters using one Rule per field category. The
// defaults implement the per-category policies described on each rule;
// Override swaps a category's policy without touching the others.
type Merger struct {
	rules map[types.FieldCategory]Rule
}

// New returns a Merger with the default per-category rules.
func New() *Merger {
	return &Merger{
		rules: map[types.FieldCategory]Rule{
			types.CategoryTempo:       tempoRule,
			types.CategoryHarmonic:    harmonicRule,
			types.CategoryCategorical: categoricalRule,
			types.CategoryText:        textRule,
			types.CategoryIdentifier:  identifierRule,
			types.CategoryNumeric:     numericRule(2),
		},
	}
}

// Override replaces the rule for one field category.
func (m *Merger) Override(cat types.FieldCategory, rule Rule) {
	m.rules[cat] = rule
}

// Merge reconciles one cluster. Fields with no candidate in any result
// stay absent from the record; every populated field carries exactly
// one provenance entry.
func (m *Merger) Merge(cluster types.Cluster, rel Reliability) (*types.MergedRecord, types.ConflictReport) {
	record := &types.MergedRecord{
		Provenance: make(map[types.Field]types.FieldProvenance),
	}
	var conflicts types.ConflictReport

	for _, f := range mergedFields {
		cands := gather(cluster, f, rel)
		if len(cands) == 0 {
			continue
		}

		rule := m.rules[types.CategoryOf(f)]
		out := rule(f, cands)

		// The merge proceeds with the identifier that drove the
		// clustering decision, even when a member disagrees.
		if f == types.FieldISRC && cluster.SharedISRC != "" {
			out.Value = cluster.SharedISRC
		}

		apply(record, f, out)
		record.Provenance[f] = types.FieldProvenance{
			Sources:    out.Sources,
			Method:     out.Method,
			Confidence: out.Confidence,
		}
		if out.Conflict != nil {
			conflicts = append(conflicts, *out.Conflict)
		}
	}

	return record, conflicts
}

// gather extracts the non-empty candidates for one field from the
// cluster, sorted by descending category weight then source name so the
// rules see a deterministic best-first order.
func gather(cluster types.Cluster, f types.Field, rel Reliability) []Candidate {
	cat := types.CategoryOf(f)
	var cands []Candidate

	for _, r := range cluster.Results {
		value, number, ok := rawValue(r.Fields, f)
		if !ok {
			continue
		}
		cands = append(cands, Candidate{
			Source:           r.Source,
			Weight:           rel(r.Source, cat),
			Value:            value,
			Number:           number,
			IdentifierBacked: r.Fields.ISRC != "",
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Weight != cands[j].Weight {
			return cands[i].Weight > cands[j].Weight
		}
		return cands[i].Source < cands[j].Source
	})
	return cands
}

// rawValue pulls one field out of a source's raw metadata. The ok
// return is false for zero values: an absent field contributes nothing.
func rawValue(raw types.RawFields, f types.Field) (value string, number float64, ok bool) {
	switch f {
	case types.FieldTitle:
		return raw.Title, 0, raw.Title != ""
	case types.FieldArtist:
		return raw.Artist, 0, raw.Artist != ""
	case types.FieldAlbum:
		return raw.Album, 0, raw.Album != ""
	case types.FieldGenre:
		return raw.Genre, 0, raw.Genre != ""
	case types.FieldLabel:
		return raw.Label, 0, raw.Label != ""
	case types.FieldBPM:
		return strconv.FormatFloat(raw.BPM, 'f', -1, 64), raw.BPM, raw.BPM > 0
	case types.FieldKey:
		return raw.Key, 0, raw.Key != ""
	case types.FieldDuration:
		return strconv.Itoa(raw.DurationSec), float64(raw.DurationSec), raw.DurationSec > 0
	case types.FieldYear:
		return strconv.Itoa(raw.Year), float64(raw.Year), raw.Year > 0
	case types.FieldISRC:
		return raw.ISRC, 0, raw.ISRC != ""
	case types.FieldCatalogNumber:
		return raw.CatalogNumber, 0, raw.CatalogNumber != ""
	default:
		return "", 0, false
	}
}

// apply writes a resolved outcome into the record's typed field.
func apply(record *types.MergedRecord, f types.Field, out Outcome) {
	switch f {
	case types.FieldTitle:
		record.Title = out.Value
	case types.FieldArtist:
		record.Artist = out.Value
	case types.FieldAlbum:
		record.Album = out.Value
	case types.FieldGenre:
		record.Genre = out.Value
		record.SecondaryGenres = out.Secondary
	case types.FieldLabel:
		record.Label = out.Value
	case types.FieldBPM:
		record.BPM = out.Number
	case types.FieldKey:
		record.Key = out.Value
	case types.FieldDuration:
		record.DurationSec = int(out.Number)
	case types.FieldYear:
		record.Year = int(out.Number)
	case types.FieldISRC:
		record.ISRC = out.Value
	case types.FieldCatalogNumber:
		record.CatalogNumber = out.Value
	}
}

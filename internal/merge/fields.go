// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"math"
	"sort"
	"strconv"

	"github.com/pdiddy/track-resolver/internal/match"
	"github.com/pdiddy/track-resolver/pkg/types"
)

// Candidate is one source's value for one field, paired with the
// source's reliability weight for the field's category.
type Candidate struct {
	Source string
	Weight float64

	// Value is the candidate in string form (original casing for text
	// fields, canonical form for keys).
	Value string

	// Number carries the numeric value for tempo and numeric fields.
	Number float64

	// IdentifierBacked marks candidates whose result carried a non-empty
	// ISRC; such sources outrank plain reliability for free-text fields.
	IdentifierBacked bool
}

// Outcome is a resolved field: the winning value, how it was chosen,
// who contributed, and any conflict observed along the way.
type Outcome struct {
	Value      string
	Number     float64
	Method     types.ResolutionMethod
	Confidence float64
	Sources    []string
	Secondary  []string
	Conflict   *types.ConflictEntry
}

// Rule resolves one field from its candidates. Candidates arrive sorted
// by descending weight (ties broken by source name), and are never
// empty. Rules are pluggable per field category: callers with different
// trust policies can override a category without touching the rest of
// the merger.
type Rule func(f types.Field, cands []Candidate) Outcome

// tempoFoldTolerance is the relative tolerance for recognizing
// half-time/double-time tempo disagreement (128 vs 64, 174 vs 87.3).
const tempoFoldTolerance = 0.04

// tempoAgreeTolerance is the absolute BPM difference within which two
// candidates count as agreeing after folding.
const tempoAgreeTolerance = 0.1

// tempoRule folds half-time/double-time candidates onto the reference
// scale set by the most reliable source, then prefers that source's
// value. Disagreement surviving the fold produces a conflict entry.
func tempoRule(f types.Field, cands []Candidate) Outcome {
	ref := cands[0].Number
	folded := false

	adjusted := make([]Candidate, len(cands))
	copy(adjusted, cands)
	for i := range adjusted {
		n := adjusted[i].Number
		switch {
		case withinRatio(n/ref, 2, tempoFoldTolerance):
			adjusted[i].Number = n / 2
			folded = true
		case withinRatio(n/ref, 0.5, tempoFoldTolerance):
			adjusted[i].Number = n * 2
			folded = true
		}
	}

	agree, reject := partitionNumeric(adjusted, ref, tempoAgreeTolerance)

	method := types.MethodHighestReliability
	if folded {
		method = types.MethodTempoNormalized
	}

	out := Outcome{
		Number:     ref,
		Value:      strconv.FormatFloat(ref, 'f', -1, 64),
		Method:     method,
		Confidence: confidence(cands[0], agree, adjusted),
		Sources:    sourcesOf(agree),
	}
	if len(reject) > 0 {
		out.Conflict = conflictEntry(f, out.Value, reject, "tempo disagreement after half-time normalization")
	}
	return out
}

// harmonicRule compares candidates in canonical key notation and
// prefers the most reliable harmonic source on a tie.
func harmonicRule(f types.Field, cands []Candidate) Outcome {
	canon := make([]Candidate, len(cands))
	copy(canon, cands)
	for i := range canon {
		if ck, ok := CanonicalKey(canon[i].Value); ok {
			canon[i].Value = ck
		}
	}

	chosen := canon[0]
	var agree, reject []Candidate
	for _, c := range canon {
		if c.Value == chosen.Value {
			agree = append(agree, c)
		} else {
			reject = append(reject, c)
		}
	}

	out := Outcome{
		Value:      chosen.Value,
		Method:     types.MethodHighestReliability,
		Confidence: confidence(chosen, agree, canon),
		Sources:    sourcesOf(agree),
	}
	if len(reject) > 0 {
		out.Conflict = conflictEntry(f, out.Value, reject, "key notations disagree after canonicalization")
	}
	return out
}

// categoricalRule picks the primary value by source reliability, or by
// majority vote when no source carries a reliability ranking. Losing
// values become secondary attributes rather than conflicts: genre tags
// union, they do not fight.
func categoricalRule(f types.Field, cands []Candidate) Outcome {
	ranked := false
	for _, c := range cands {
		if c.Weight > 0 {
			ranked = true
			break
		}
	}

	var chosen Candidate
	method := types.MethodHighestReliability
	if ranked {
		chosen = cands[0]
	} else {
		chosen = majority(cands)
		method = types.MethodMajorityVote
	}

	var agree []Candidate
	secondarySeen := make(map[string]bool)
	var secondary []string
	for _, c := range cands {
		if match.Normalize(c.Value) == match.Normalize(chosen.Value) {
			agree = append(agree, c)
			continue
		}
		if !secondarySeen[match.Normalize(c.Value)] {
			secondarySeen[match.Normalize(c.Value)] = true
			secondary = append(secondary, c.Value)
		}
	}
	sort.Strings(secondary)

	return Outcome{
		Value:      chosen.Value,
		Method:     method,
		Confidence: confidence(chosen, agree, cands),
		Sources:    sourcesOf(agree),
		Secondary:  secondary,
	}
}

// textRule prefers the most reliable source unless a later candidate is
// identifier-backed: an ISRC-bearing source is authoritative for title
// and artist regardless of general reliability ranking.
func textRule(f types.Field, cands []Candidate) Outcome {
	chosen := cands[0]
	method := types.MethodHighestReliability
	for _, c := range cands {
		if c.IdentifierBacked {
			chosen = c
			method = types.MethodIdentifierAuthority
			break
		}
	}

	var agree, reject []Candidate
	for _, c := range cands {
		if match.Normalize(c.Value) == match.Normalize(chosen.Value) {
			agree = append(agree, c)
		} else {
			reject = append(reject, c)
		}
	}

	out := Outcome{
		Value:      chosen.Value,
		Method:     method,
		Confidence: confidence(chosen, agree, cands),
		Sources:    sourcesOf(agree),
	}
	if len(reject) > 0 {
		out.Conflict = conflictEntry(f, out.Value, reject, "text variants disagree")
	}
	return out
}

// identifierRule accepts any non-empty candidate; disagreement flags a
// conflict and caps the field confidence, but never aborts the merge.
func identifierRule(f types.Field, cands []Candidate) Outcome {
	chosen := cands[0]

	var agree, reject []Candidate
	for _, c := range cands {
		if c.Value == chosen.Value {
			agree = append(agree, c)
		} else {
			reject = append(reject, c)
		}
	}

	out := Outcome{
		Value:      chosen.Value,
		Method:     types.MethodFirstNonEmpty,
		Confidence: confidence(chosen, agree, cands),
		Sources:    sourcesOf(agree),
	}
	if len(reject) > 0 {
		// Conflicting exact identifiers are a strong signal something is
		// off in the cluster; reflect that in the confidence.
		if out.Confidence > 0.4 {
			out.Confidence = 0.4
		}
		out.Conflict = conflictEntry(f, out.Value, reject, "sources report different identifiers")
	}
	return out
}

// numericRule resolves duration and year: candidates within tol of the
// most reliable value are averaged (weighted), outliers are rejected.
func numericRule(tol float64) Rule {
	return func(f types.Field, cands []Candidate) Outcome {
		ref := cands[0].Number
		agree, reject := partitionNumeric(cands, ref, tol)

		value := ref
		method := types.MethodHighestReliability
		if len(agree) > 1 {
			value = weightedMean(agree)
			method = types.MethodAveraged
		}
		value = math.Round(value)

		out := Outcome{
			Number:     value,
			Value:      strconv.FormatFloat(value, 'f', -1, 64),
			Method:     method,
			Confidence: confidence(cands[0], agree, cands),
			Sources:    sourcesOf(agree),
		}
		if len(reject) > 0 {
			out.Conflict = conflictEntry(f, out.Value, reject, "numeric values disagree beyond tolerance")
		}
		return out
	}
}

// --- shared helpers ---

func withinRatio(ratio, target, tol float64) bool {
	return math.Abs(ratio-target) <= target*tol
}

func partitionNumeric(cands []Candidate, ref, tol float64) (agree, reject []Candidate) {
	for _, c := range cands {
		if math.Abs(c.Number-ref) <= tol {
			agree = append(agree, c)
		} else {
			reject = append(reject, c)
		}
	}
	return agree, reject
}

func weightedMean(cands []Candidate) float64 {
	var sum, wsum float64
	for _, c := range cands {
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		sum += c.Number * w
		wsum += w
	}
	return sum / wsum
}

// confidence scores a resolved field: a lone candidate inherits its
// source's reliability; corroborated values score by the weight share
// of the agreeing sources, so disagreement always costs trust.
func confidence(chosen Candidate, agree, all []Candidate) float64 {
	if len(all) == 1 {
		return clamp01(chosen.Weight)
	}
	var agreeW, totalW float64
	for _, c := range agree {
		agreeW += weightOrDefault(c)
	}
	for _, c := range all {
		totalW += weightOrDefault(c)
	}
	if totalW == 0 {
		return 0
	}
	return clamp01(agreeW / totalW)
}

func weightOrDefault(c Candidate) float64 {
	if c.Weight <= 0 {
		return 0.5
	}
	return c.Weight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sourcesOf(cands []Candidate) []string {
	seen := make(map[string]bool, len(cands))
	var names []string
	for _, c := range cands {
		if !seen[c.Source] {
			seen[c.Source] = true
			names = append(names, c.Source)
		}
	}
	return names
}

func conflictEntry(f types.Field, chosen string, reject []Candidate, reason string) *types.ConflictEntry {
	entry := types.ConflictEntry{Field: f, Chosen: chosen, Reason: reason}
	for _, c := range reject {
		value := c.Value
		if value == "" {
			value = strconv.FormatFloat(c.Number, 'f', -1, 64)
		}
		entry.Rejected = append(entry.Rejected, types.RejectedValue{
			Value:  value,
			Source: c.Source,
			Weight: c.Weight,
		})
	}
	return &entry
}

// majority returns the candidate whose (normalized) value occurs most
// often, breaking ties lexicographically for determinism.
func majority(cands []Candidate) Candidate {
	counts := make(map[string]int)
	rep := make(map[string]Candidate)
	for _, c := range cands {
		k := match.Normalize(c.Value)
		counts[k]++
		if _, ok := rep[k]; !ok {
			rep[k] = c
		}
	}

	var bestKey string
	best := -1
	for k, n := range counts {
		if n > best || (n == best && k < bestKey) {
			best = n
			bestKey = k
		}
	}
	return rep[bestKey]
}

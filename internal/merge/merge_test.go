package merge

import (
	"reflect"
	"testing"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// relTable builds a Reliability that answers a flat per-source weight
// for every category.
func relTable(weights map[string]float64) Reliability {
	return func(source string, _ types.FieldCategory) float64 {
		return weights[source]
	}
}

func clusterOf(results ...types.PlatformResult) types.Cluster {
	return types.Cluster{Results: results, IdentityScore: 1}
}

func TestMergeHalfTimeTempoFoldsToOneValue(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Title: "Track", BPM: 128}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{Title: "Track", BPM: 64}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.5})

	record, conflicts := New().Merge(cluster, rel)

	if record.BPM != 128 {
		t.Errorf("BPM = %v, want 128", record.BPM)
	}
	for _, c := range conflicts {
		if c.Field == types.FieldBPM {
			t.Errorf("half-time disagreement must not surface as a conflict: %+v", c)
		}
	}
	prov, ok := record.Provenance[types.FieldBPM]
	if !ok {
		t.Fatal("bpm provenance missing")
	}
	if prov.Method != types.MethodTempoNormalized {
		t.Errorf("method = %q, want %q", prov.Method, types.MethodTempoNormalized)
	}
}

func TestMergeTempoConflictPrefersReliableSource(t *testing.T) {
	// A (0.9) says 128, B (0.5) says 127: merged bpm must be 128 with a
	// conflict entry naming B's rejected value.
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{BPM: 128}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{BPM: 127}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.5})

	record, conflicts := New().Merge(cluster, rel)

	if record.BPM != 128 {
		t.Fatalf("BPM = %v, want 128", record.BPM)
	}

	var found bool
	for _, c := range conflicts {
		if c.Field != types.FieldBPM {
			continue
		}
		found = true
		if len(c.Rejected) != 1 || c.Rejected[0].Source != "b" || c.Rejected[0].Value != "127" {
			t.Errorf("rejected = %+v, want B's 127", c.Rejected)
		}
	}
	if !found {
		t.Error("expected a bpm conflict entry")
	}
}

func TestMergeKeyNotationsCanonicalize(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Key: "Am"}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{Key: "8A"}},
	)
	rel := relTable(map[string]float64{"a": 0.7, "b": 0.6})

	record, conflicts := New().Merge(cluster, rel)

	if record.Key != "A minor" {
		t.Errorf("Key = %q, want %q", record.Key, "A minor")
	}
	if len(conflicts) != 0 {
		t.Errorf("equivalent notations must not conflict: %+v", conflicts)
	}
	prov := record.Provenance[types.FieldKey]
	if prov.Confidence != 1 {
		t.Errorf("confidence = %v, want 1 for full agreement", prov.Confidence)
	}
}

func TestMergeISRCBackedSourceWinsText(t *testing.T) {
	// The less reliable source carries an ISRC, which makes it the
	// authority for free-text fields.
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Title: "Blue Monday 88"}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{Title: "Blue Monday '88", ISRC: "GBAAN8800001"}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.5})

	record, _ := New().Merge(cluster, rel)

	if record.Title != "Blue Monday '88" {
		t.Errorf("Title = %q, want identifier-backed source's value", record.Title)
	}
	if record.Provenance[types.FieldTitle].Method != types.MethodIdentifierAuthority {
		t.Errorf("method = %q, want %q",
			record.Provenance[types.FieldTitle].Method, types.MethodIdentifierAuthority)
	}
}

func TestMergeConflictingIdentifiersLowerConfidence(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{ISRC: "USAA10000001"}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{ISRC: "USBB29999999"}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.8})

	record, conflicts := New().Merge(cluster, rel)

	// Merge proceeds: the record still carries an ISRC.
	if record.ISRC != "USAA10000001" {
		t.Errorf("ISRC = %q, want the more reliable source's value", record.ISRC)
	}
	if got := record.Provenance[types.FieldISRC].Confidence; got > 0.4 {
		t.Errorf("confidence = %v, want <= 0.4 for conflicting identifiers", got)
	}

	var found bool
	for _, c := range conflicts {
		if c.Field == types.FieldISRC {
			found = true
		}
	}
	if !found {
		t.Error("expected an isrc conflict entry")
	}
}

func TestMergeSharedISRCSurvivesDisagreement(t *testing.T) {
	cluster := types.Cluster{
		Results: []types.PlatformResult{
			{Source: "a", Fields: types.RawFields{ISRC: "USAA10000001"}},
			{Source: "b", Fields: types.RawFields{ISRC: "USBB29999999"}},
		},
		SharedISRC: "USBB29999999",
	}
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.8})

	record, _ := New().Merge(cluster, rel)
	if record.ISRC != "USBB29999999" {
		t.Errorf("ISRC = %q, want the identifier the clustering decision used", record.ISRC)
	}
}

func TestMergeGenreMajorityWhenUnranked(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Genre: "Techno"}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{Genre: "techno"}},
		types.PlatformResult{Source: "c", Fields: types.RawFields{Genre: "Electronica"}},
	)
	rel := relTable(map[string]float64{}) // nobody ranked

	record, _ := New().Merge(cluster, rel)

	if record.Genre != "Techno" {
		t.Errorf("Genre = %q, want majority value Techno", record.Genre)
	}
	if record.Provenance[types.FieldGenre].Method != types.MethodMajorityVote {
		t.Errorf("method = %q, want %q",
			record.Provenance[types.FieldGenre].Method, types.MethodMajorityVote)
	}
	if !reflect.DeepEqual(record.SecondaryGenres, []string{"Electronica"}) {
		t.Errorf("SecondaryGenres = %v, want [Electronica]", record.SecondaryGenres)
	}
}

func TestMergeAbsentFieldsStayAbsent(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Title: "Track", Artist: "Artist"}},
	)
	rel := relTable(map[string]float64{"a": 0.9})

	record, _ := New().Merge(cluster, rel)

	if record.Has(types.FieldBPM) || record.Has(types.FieldKey) || record.Has(types.FieldISRC) {
		t.Error("unsupplied fields must stay absent, not defaulted")
	}
	if record.BPM != 0 || record.Key != "" {
		t.Error("absent fields must hold zero values")
	}
	if len(record.Provenance) != 2 {
		t.Errorf("provenance entries = %d, want 2 (title, artist)", len(record.Provenance))
	}
}

func TestMergeEveryPopulatedFieldHasOneProvenanceEntry(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{
			Title: "Strobe", Artist: "deadmau5", Album: "For Lack of a Better Name",
			Genre: "Progressive House", Label: "mau5trap", BPM: 128, Key: "B major",
			DurationSec: 634, Year: 2009, ISRC: "CAX4E0900021", CatalogNumber: "MAU5CD03",
		}},
	)
	rel := relTable(map[string]float64{"a": 0.85})

	record, _ := New().Merge(cluster, rel)

	for _, f := range mergedFields {
		if record.FieldValue(f) == "" {
			t.Errorf("field %s missing from fully populated record", f)
		}
		if _, ok := record.Provenance[f]; !ok {
			t.Errorf("field %s lacks a provenance entry", f)
		}
	}
}

func TestMergeDeterministic(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{
			Title: "One More Time", Artist: "Daft Punk", BPM: 123, Key: "D minor", DurationSec: 320,
		}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{
			Title: "One More Time", Artist: "Daft Punk", BPM: 61.5, Key: "7A", DurationSec: 321,
			Genre: "House",
		}},
		types.PlatformResult{Source: "c", Fields: types.RawFields{
			Title: "One more time", Artist: "Daft Punk", Genre: "French House", Year: 2000,
		}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.7, "c": 0.6})

	m := New()
	rec1, conf1 := m.Merge(cluster, rel)
	rec2, conf2 := m.Merge(cluster, rel)

	if !reflect.DeepEqual(rec1, rec2) {
		t.Error("merging the same cluster twice produced different records")
	}
	if !reflect.DeepEqual(conf1, conf2) {
		t.Error("merging the same cluster twice produced different conflict reports")
	}
}

func TestMergeOverrideRule(t *testing.T) {
	cluster := clusterOf(
		types.PlatformResult{Source: "a", Fields: types.RawFields{Genre: "Techno"}},
		types.PlatformResult{Source: "b", Fields: types.RawFields{Genre: "House"}},
	)
	rel := relTable(map[string]float64{"a": 0.9, "b": 0.5})

	m := New()
	m.Override(types.CategoryCategorical, func(f types.Field, cands []Candidate) Outcome {
		// Always take the last candidate, to prove the policy is pluggable.
		c := cands[len(cands)-1]
		return Outcome{Value: c.Value, Method: types.MethodMajorityVote, Confidence: 0.5, Sources: []string{c.Source}}
	})

	record, _ := m.Merge(cluster, rel)
	if record.Genre != "House" {
		t.Errorf("Genre = %q, want overridden rule's pick", record.Genre)
	}
}

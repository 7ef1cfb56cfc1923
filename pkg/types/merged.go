// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// Field names a tracked metadata field of a merged record.
type Field string

const (
	FieldTitle         Field = "title"
	FieldArtist        Field = "artist"
	FieldAlbum         Field = "album"
	FieldGenre         Field = "genre"
	FieldLabel         Field = "label"
	FieldBPM           Field = "bpm"
	FieldKey           Field = "musical_key"
	FieldDuration      Field = "duration"
	FieldYear          Field = "year"
	FieldISRC          Field = "isrc"
	FieldCatalogNumber Field = "catalog_number"
)

// FieldCategory groups fields that share a reconciliation rule and a
// per-source reliability weight.
type FieldCategory string

const (
	CategoryText        FieldCategory = "text"        // title, artist, album
	CategoryCategorical FieldCategory = "categorical" // genre, label
	CategoryTempo       FieldCategory = "tempo"       // bpm
	CategoryHarmonic    FieldCategory = "harmonic"    // musical key
	CategoryNumeric     FieldCategory = "numeric"     // duration, year
	CategoryIdentifier  FieldCategory = "identifier"  // isrc, catalog number
)

// CategoryOf returns the reconciliation category for a field.
func CategoryOf(f Field) FieldCategory {
	switch f {
	case FieldTitle, FieldArtist, FieldAlbum:
		return CategoryText
	case FieldGenre, FieldLabel:
		return CategoryCategorical
	case FieldBPM:
		return CategoryTempo
	case FieldKey:
		return CategoryHarmonic
	case FieldISRC, FieldCatalogNumber:
		return CategoryIdentifier
	default:
		return CategoryNumeric
	}
}

// ReliabilityTable maps field categories to a source's reliability
// weight in [0,1] for that kind of data. Sources good at tempo data may
// be poor at label data, so weights are per category.
type ReliabilityTable map[FieldCategory]float64

// Weight returns the table's weight for a category, falling back to the
// mean of the configured weights when the category is absent.
func (t ReliabilityTable) Weight(cat FieldCategory) float64 {
	if w, ok := t[cat]; ok {
		return w
	}
	return t.Overall()
}

// Overall returns the mean weight across configured categories, used to
// rank whole sources against each other.
func (t ReliabilityTable) Overall() float64 {
	if len(t) == 0 {
		return 0
	}
	var sum float64
	for _, w := range t {
		sum += w
	}
	return sum / float64(len(t))
}

// ResolutionMethod names how a merged field value was chosen.
type ResolutionMethod string

const (
	MethodHighestReliability  ResolutionMethod = "trust-highest-reliability"
	MethodMajorityVote        ResolutionMethod = "majority-vote"
	MethodAveraged            ResolutionMethod = "averaged"
	MethodIdentifierAuthority ResolutionMethod = "identifier-authority"
	MethodFirstNonEmpty       ResolutionMethod = "first-non-empty"
	MethodTempoNormalized     ResolutionMethod = "tempo-normalized"
)

// FieldProvenance records which source(s) contributed a merged field's
// value, the method used to resolve it, and the per-field confidence.
type FieldProvenance struct {
	// Sources lists the contributing source names, best first.
	Sources []string `json:"sources" yaml:"sources"`

	// Method is the resolution strategy that produced the value.
	Method ResolutionMethod `json:"method" yaml:"method"`

	// Confidence is the trust in the resolved value, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// RejectedValue is one losing candidate in a field conflict.
type RejectedValue struct {
	Value  string  `json:"value" yaml:"value"`
	Source string  `json:"source" yaml:"source"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// ConflictEntry records one field where candidate values disagreed
// beyond tolerance. Kept for auditability; it never affects downstream
// logic beyond display.
type ConflictEntry struct {
	Field    Field           `json:"field" yaml:"field"`
	Chosen   string          `json:"chosen" yaml:"chosen"`
	Rejected []RejectedValue `json:"rejected" yaml:"rejected"`
	Reason   string          `json:"reason" yaml:"reason"`
}

// ConflictReport lists every field conflict observed while merging one
// cluster.
type ConflictReport []ConflictEntry

// MergedRecord is the canonical output of merging one cluster. A field
// holding its zero value with no provenance entry is absent: nothing is
// defaulted.
type MergedRecord struct {
	Title         string   `json:"title,omitempty" yaml:"title,omitempty"`
	Artist        string   `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album         string   `json:"album,omitempty" yaml:"album,omitempty"`
	Genre         string   `json:"genre,omitempty" yaml:"genre,omitempty"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	BPM           float64  `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	Key           string   `json:"musical_key,omitempty" yaml:"musical_key,omitempty"`
	DurationSec   int      `json:"duration_sec,omitempty" yaml:"duration_sec,omitempty"`
	Year          int      `json:"year,omitempty" yaml:"year,omitempty"`
	ISRC          string   `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	CatalogNumber string   `json:"catalog_number,omitempty" yaml:"catalog_number,omitempty"`

	// SecondaryGenres unions low-conflict genre tags from sources that
	// lost the primary-genre vote.
	SecondaryGenres []string `json:"secondary_genres,omitempty" yaml:"secondary_genres,omitempty"`

	// Provenance holds exactly one entry per populated field.
	Provenance map[Field]FieldProvenance `json:"provenance" yaml:"provenance"`
}

// Has reports whether the record populated the named field. A field is
// populated iff it carries a provenance entry.
func (m *MergedRecord) Has(f Field) bool {
	_, ok := m.Provenance[f]
	return ok
}

// FieldValue returns a display string for the named field, empty when
// the field is absent.
func (m *MergedRecord) FieldValue(f Field) string {
	if !m.Has(f) {
		return ""
	}
	switch f {
	case FieldTitle:
		return m.Title
	case FieldArtist:
		return m.Artist
	case FieldAlbum:
		return m.Album
	case FieldGenre:
		return m.Genre
	case FieldLabel:
		return m.Label
	case FieldBPM:
		return strconv.FormatFloat(m.BPM, 'f', -1, 64)
	case FieldKey:
		return m.Key
	case FieldDuration:
		return strconv.Itoa(m.DurationSec)
	case FieldYear:
		return strconv.Itoa(m.Year)
	case FieldISRC:
		return m.ISRC
	case FieldCatalogNumber:
		return m.CatalogNumber
	default:
		return ""
	}
}

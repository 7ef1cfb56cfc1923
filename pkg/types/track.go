// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the track-resolver
// pipeline: queries, raw source results, merged records with provenance,
// quality reports, acquisition options, and the per-request research
// context that ties them together.
package types

import "time"

// TrackQuery is the immutable input to a resolution request: a loose
// "artist – title" query plus optional hints that narrow the search.
type TrackQuery struct {
	// ArtistHint is the artist name as supplied by the caller.
	ArtistHint string `json:"artist_hint" yaml:"artist_hint"`

	// TitleHint is the track title as supplied by the caller.
	TitleHint string `json:"title_hint" yaml:"title_hint"`

	// AlbumHint optionally restricts matches to a release.
	AlbumHint string `json:"album_hint,omitempty" yaml:"album_hint,omitempty"`

	// DurationHint is the expected track length in seconds, zero if
	// unknown. It steers primary-cluster selection toward the matching
	// version (radio edit vs. extended mix).
	DurationHint int `json:"duration_hint,omitempty" yaml:"duration_hint,omitempty"`

	// YearHint is the expected release year, zero if unknown.
	YearHint int `json:"year_hint,omitempty" yaml:"year_hint,omitempty"`

	// GenreHint optionally biases the search toward a genre.
	GenreHint string `json:"genre_hint,omitempty" yaml:"genre_hint,omitempty"`

	// Requirements carries caller overrides for the quality assessment:
	// minimum completeness/confidence and the set of required fields.
	// A zero value means the configured defaults apply.
	Requirements Requirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// IsEmpty reports whether the query contains no searchable terms.
func (q TrackQuery) IsEmpty() bool {
	return q.ArtistHint == "" && q.TitleHint == ""
}

// Requirements are caller-supplied quality demands for one request.
type Requirements struct {
	// MinCompleteness overrides the configured completeness threshold
	// when non-zero.
	MinCompleteness float64 `json:"min_completeness,omitempty" yaml:"min_completeness,omitempty"`

	// MinConfidence overrides the configured confidence threshold
	// when non-zero.
	MinConfidence float64 `json:"min_confidence,omitempty" yaml:"min_confidence,omitempty"`

	// RequiredFields overrides the configured required-field set when
	// non-empty.
	RequiredFields []Field `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
}

// AcquisitionKind classifies how an acquisition link obtains audio.
type AcquisitionKind string

const (
	KindDownload AcquisitionKind = "download"
	KindStream   AcquisitionKind = "stream"
	KindPurchase AcquisitionKind = "purchase"
)

// AcquisitionLink is a raw acquisition pointer surfaced by one source.
type AcquisitionLink struct {
	Kind AcquisitionKind `json:"kind" yaml:"kind"`

	// URL locates the audio (or the purchase/stream page).
	URL string `json:"url" yaml:"url"`

	// Format names the audio encoding when known (e.g. "flac",
	// "mp3-320", "stream"). Empty means unknown.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// BitrateKbps is the encoded bitrate when known, zero otherwise.
	BitrateKbps int `json:"bitrate_kbps,omitempty" yaml:"bitrate_kbps,omitempty"`

	// Price is a display string for purchase links (e.g. "1.29 EUR").
	Price string `json:"price,omitempty" yaml:"price,omitempty"`
}

// RawFields holds the metadata a single source reported for one track.
// Zero values mean the source did not supply the field.
type RawFields struct {
	Title         string            `json:"title,omitempty" yaml:"title,omitempty"`
	Artist        string            `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album         string            `json:"album,omitempty" yaml:"album,omitempty"`
	Genre         string            `json:"genre,omitempty" yaml:"genre,omitempty"`
	Label         string            `json:"label,omitempty" yaml:"label,omitempty"`
	BPM           float64           `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	Key           string            `json:"musical_key,omitempty" yaml:"musical_key,omitempty"`
	DurationSec   int               `json:"duration_sec,omitempty" yaml:"duration_sec,omitempty"`
	Year          int               `json:"year,omitempty" yaml:"year,omitempty"`
	ISRC          string            `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	CatalogNumber string            `json:"catalog_number,omitempty" yaml:"catalog_number,omitempty"`
	QualityTier   string            `json:"quality_tier,omitempty" yaml:"quality_tier,omitempty"`
	Links         []AcquisitionLink `json:"links,omitempty" yaml:"links,omitempty"`
}

// PlatformResult is one source's raw answer for a query. Immutable once
// produced by an adapter.
type PlatformResult struct {
	// Source identifies the adapter that produced this result
	// (e.g. "musicbrainz", "deezer").
	Source string `json:"source" yaml:"source"`

	// Fields holds the metadata the source reported.
	Fields RawFields `json:"fields" yaml:"fields"`

	// FetchedAt is when the adapter produced the result.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Cluster groups PlatformResults believed to describe the same
// recording. Built once per resolution pass and consumed by the merger.
type Cluster struct {
	// Results are the member results, ordered by descending source
	// reliability for deterministic merging.
	Results []PlatformResult `json:"results" yaml:"results"`

	// IdentityScore is the confidence that the members are the same
	// recording, in [0,1].
	IdentityScore float64 `json:"identity_score" yaml:"identity_score"`

	// AggregateReliability sums the overall reliability of the distinct
	// sources contributing to the cluster. The orchestrator picks the
	// primary cluster by this value.
	AggregateReliability float64 `json:"aggregate_reliability" yaml:"aggregate_reliability"`

	// SharedISRC is set when an exact identifier match drove the
	// clustering decision; the merger trusts it over later disagreement.
	SharedISRC string `json:"shared_isrc,omitempty" yaml:"shared_isrc,omitempty"`
}

// Sources returns the distinct source names contributing to the cluster.
func (c Cluster) Sources() []string {
	seen := make(map[string]bool, len(c.Results))
	var names []string
	for _, r := range c.Results {
		if !seen[r.Source] {
			seen[r.Source] = true
			names = append(names, r.Source)
		}
	}
	return names
}

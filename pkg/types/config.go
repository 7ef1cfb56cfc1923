package types

import "time"

// HTTPConfig holds shared HTTP settings used by source adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "track-resolver/0.1"). MusicBrainz rejects anonymous clients.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds per-source settings: reliability weights, rate
// limits, and ranking priority. Sources have unrelated quotas, so each
// gets its own limiter.
type SourceConfig struct {
	// Enabled controls whether the source participates in fan-out.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Reliability maps field categories to trust weights in [0,1].
	Reliability ReliabilityTable `json:"reliability" yaml:"reliability"`

	// RequestsPerSec bounds the source's request rate. Zero means
	// unlimited.
	RequestsPerSec float64 `json:"requests_per_sec" yaml:"requests_per_sec"`

	// Burst is the limiter burst size (default 1).
	Burst int `json:"burst" yaml:"burst"`

	// Timeout bounds a single search call to this source. Zero falls
	// back to the HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Priority breaks acquisition-ranking ties: lower is preferred.
	Priority int `json:"priority" yaml:"priority"`

	// Token is an optional API credential for the source.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// MatcherConfig holds candidate-clustering settings.
type MatcherConfig struct {
	// IdentityThreshold is the minimum combined evidence for two results
	// to join a cluster (default 0.82).
	IdentityThreshold float64 `json:"identity_threshold" yaml:"identity_threshold"`

	// AmbiguityMargin is the aggregate-reliability gap under which two
	// top clusters count as an ambiguous match (default 0.05).
	AmbiguityMargin float64 `json:"ambiguity_margin" yaml:"ambiguity_margin"`

	// DurationStrongSec is the duration difference treated as strong
	// positive evidence (default 2).
	DurationStrongSec int `json:"duration_strong_sec" yaml:"duration_strong_sec"`

	// DurationRejectSec is the duration difference beyond which two
	// results are distinct versions regardless of textual similarity,
	// unless an exact identifier overrides (default 5).
	DurationRejectSec int `json:"duration_reject_sec" yaml:"duration_reject_sec"`
}

// AssessConfig holds quality-scoring thresholds and field weights. They
// vary by use case (casual listening vs. DJ cataloguing), so nothing
// here is hard-coded in the assessor.
type AssessConfig struct {
	// RequiredFields is the field set completeness is measured against.
	RequiredFields []Field `json:"required_fields" yaml:"required_fields"`

	// FieldWeights holds per-field importance for the confidence mean.
	// Missing fields weigh 1.0.
	FieldWeights map[Field]float64 `json:"field_weights" yaml:"field_weights"`

	// CompletenessThreshold is the minimum completeness for solved
	// (default 0.8).
	CompletenessThreshold float64 `json:"completeness_threshold" yaml:"completeness_threshold"`

	// ConfidenceThreshold is the minimum confidence for solved
	// (default 0.7).
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// MinSources is the minimum distinct-source count for solved
	// (default 2).
	MinSources int `json:"min_sources" yaml:"min_sources"`
}

// RankConfig holds the acquisition quality scale and source priorities.
type RankConfig struct {
	// QualityScale maps format names to 0-100 quality scores.
	QualityScale map[string]int `json:"quality_scale" yaml:"quality_scale"`
}

// CacheConfig holds result-cache TTLs. Negative results (no match
// found) expire sooner than positive ones.
type CacheConfig struct {
	PositiveTTL time.Duration `json:"positive_ttl" yaml:"positive_ttl"`
	NegativeTTL time.Duration `json:"negative_ttl" yaml:"negative_ttl"`
}

// ResolverConfig groups all settings for the resolution engine.
type ResolverConfig struct {
	HTTP    HTTPConfig              `json:"http" yaml:"http"`
	Sources map[string]SourceConfig `json:"sources" yaml:"sources"`
	Matcher MatcherConfig           `json:"matcher" yaml:"matcher"`
	Assess  AssessConfig            `json:"assess" yaml:"assess"`
	Rank    RankConfig              `json:"rank" yaml:"rank"`
	Cache   CacheConfig             `json:"cache" yaml:"cache"`

	// CollectDeadline bounds one fan-out round; the orchestrator
	// proceeds with whatever arrived by then (default 10s).
	CollectDeadline time.Duration `json:"collect_deadline" yaml:"collect_deadline"`

	// MaxRounds bounds widened re-collection after an unresolved pass
	// (default 2, meaning one initial round plus one retry).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// LibraryPath locates the SQLite library database used for owned
	// tracks and persisted resolutions.
	LibraryPath string `json:"library_path" yaml:"library_path"`
}

// DefaultResolverConfig returns the configuration used when no config
// file overrides it. Reliability weights reflect each source's typical
// strengths; they are starting points, not structural constants.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "track-resolver/0.1",
		},
		Sources: map[string]SourceConfig{
			"musicbrainz": {
				Enabled: true,
				Reliability: ReliabilityTable{
					CategoryText:        0.9,
					CategoryIdentifier:  0.95,
					CategoryCategorical: 0.7,
					CategoryNumeric:     0.85,
					CategoryTempo:       0.5,
					CategoryHarmonic:    0.5,
				},
				RequestsPerSec: 1, // musicbrainz.org allows one request per second
				Burst:          1,
				Priority:       1,
			},
			"deezer": {
				Enabled: true,
				Reliability: ReliabilityTable{
					CategoryText:        0.8,
					CategoryIdentifier:  0.85,
					CategoryCategorical: 0.75,
					CategoryNumeric:     0.8,
					CategoryTempo:       0.85,
					CategoryHarmonic:    0.6,
				},
				RequestsPerSec: 5,
				Burst:          5,
				Priority:       2,
			},
			"itunes": {
				Enabled: true,
				Reliability: ReliabilityTable{
					CategoryText:        0.75,
					CategoryIdentifier:  0.6,
					CategoryCategorical: 0.8,
					CategoryNumeric:     0.8,
					CategoryTempo:       0.3,
					CategoryHarmonic:    0.3,
				},
				RequestsPerSec: 3,
				Burst:          3,
				Priority:       3,
			},
		},
		Matcher: MatcherConfig{
			IdentityThreshold: 0.82,
			AmbiguityMargin:   0.05,
			DurationStrongSec: 2,
			DurationRejectSec: 5,
		},
		Assess: AssessConfig{
			RequiredFields: []Field{
				FieldTitle, FieldArtist, FieldAlbum, FieldGenre,
				FieldBPM, FieldKey, FieldDuration, FieldYear, FieldISRC,
			},
			FieldWeights: map[Field]float64{
				FieldBPM:           2.0,
				FieldKey:           2.0,
				FieldISRC:          2.0,
				FieldCatalogNumber: 1.5,
				FieldDuration:      1.5,
			},
			CompletenessThreshold: 0.8,
			ConfidenceThreshold:   0.7,
			MinSources:            2,
		},
		Rank: RankConfig{
			QualityScale: map[string]int{
				"flac":    100,
				"alac":    98,
				"wav":     95,
				"aiff":    95,
				"mp3-320": 80,
				"aac-256": 75,
				"mp3-256": 70,
				"mp3-192": 60,
				"mp3-128": 45,
				"aac-128": 45,
				"stream":  25,
				"unknown": 15,
				"corrupt": 0,
			},
		},
		Cache: CacheConfig{
			PositiveTTL: 1 * time.Hour,
			NegativeTTL: 5 * time.Minute,
		},
		CollectDeadline: 10 * time.Second,
		MaxRounds:       2,
		LibraryPath:     "library/tracks.db",
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is the lifecycle state of a ResearchContext. Transitions run
// one-directional through the pipeline stages; the only retry path is
// re-entering StatusCollecting for a bounded number of widened rounds.
type Status string

const (
	StatusCreated    Status = "created"
	StatusCollecting Status = "collecting"
	StatusMatching   Status = "matching"
	StatusMerging    Status = "merging"
	StatusAssessing  Status = "assessing"
	StatusSolved     Status = "solved"
	StatusPartial    Status = "partial"
	StatusUnresolved Status = "unresolved"
	StatusAcquired   Status = "acquired"
)

// Terminal reports whether the status ends a resolution pass.
func (s Status) Terminal() bool {
	switch s {
	case StatusSolved, StatusPartial, StatusUnresolved, StatusAcquired:
		return true
	}
	return false
}

// ReasonCode explains a non-solved outcome.
type ReasonCode string

const (
	// ReasonNoData means no source produced any result before the
	// collection deadline.
	ReasonNoData ReasonCode = "no_data"

	// ReasonAmbiguousMatch means multiple clusters scored near-identically
	// for primary selection; the caller should disambiguate using the
	// alternates.
	ReasonAmbiguousMatch ReasonCode = "ambiguous_match"

	// ReasonBelowThresholds means a record was merged but missed the
	// configured completeness/confidence/source-count bar.
	ReasonBelowThresholds ReasonCode = "below_thresholds"
)

// QualityReport scores one MergedRecord against the configured
// requirements. Computed fresh whenever the record changes.
type QualityReport struct {
	// Completeness is the fraction of required fields populated.
	Completeness float64 `json:"completeness" yaml:"completeness"`

	// Confidence is the importance-weighted mean of per-field confidences.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// DistinctSourceCount is how many different sources contributed at
	// least one field.
	DistinctSourceCount int `json:"distinct_source_count" yaml:"distinct_source_count"`

	// MissingFields lists required fields the record did not populate.
	MissingFields []Field `json:"missing_fields,omitempty" yaml:"missing_fields,omitempty"`

	// Status classifies the record: solved, partial, or unresolved.
	Status Status `json:"status" yaml:"status"`
}

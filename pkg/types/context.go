// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AcquisitionOption is one ranked way to obtain the resolved track.
// Ordering within a list is significant: best first.
type AcquisitionOption struct {
	// Source is the adapter that surfaced the link.
	Source string `json:"source" yaml:"source"`

	Kind AcquisitionKind `json:"kind" yaml:"kind"`

	// QualityScore places the option on the 0-100 scale: lossless at the
	// top, lossy bitrate tiers below, unknown-quality stream rips near
	// the bottom, corrupt or invalid at zero.
	QualityScore int `json:"quality_score" yaml:"quality_score"`

	// Locator is the URL or source-specific locator for the audio.
	Locator string `json:"locator" yaml:"locator"`

	// Price is a display string for purchase options, empty otherwise.
	Price string `json:"price,omitempty" yaml:"price,omitempty"`
}

// ResearchContext is the aggregate root for one resolution request. It
// is owned exclusively by the orchestrator while the request runs and
// handed to the caller once terminal.
type ResearchContext struct {
	// ID uniquely identifies the request.
	ID string `json:"id" yaml:"id"`

	// Query is the immutable input.
	Query TrackQuery `json:"query" yaml:"query"`

	Status Status     `json:"status" yaml:"status"`
	Reason ReasonCode `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Raw holds every PlatformResult received, across all rounds.
	Raw []PlatformResult `json:"raw,omitempty" yaml:"raw,omitempty"`

	// Primary is the chosen candidate cluster; Alternates keeps the
	// remaining clusters (distinct versions, near-misses) for caller
	// inspection.
	Primary    *Cluster  `json:"primary,omitempty" yaml:"primary,omitempty"`
	Alternates []Cluster `json:"alternates,omitempty" yaml:"alternates,omitempty"`

	Record    *MergedRecord  `json:"record,omitempty" yaml:"record,omitempty"`
	Conflicts ConflictReport `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Quality   *QualityReport `json:"quality,omitempty" yaml:"quality,omitempty"`

	// Acquisitions is the ranked option list, best first. Empty unless
	// the record reached solved or partial.
	Acquisitions []AcquisitionOption `json:"acquisitions,omitempty" yaml:"acquisitions,omitempty"`

	// UpgradeAvailable is set when the caller owns this track and the
	// best acquisition option strictly exceeds the owned quality.
	UpgradeAvailable bool `json:"upgrade_available,omitempty" yaml:"upgrade_available,omitempty"`

	// Rounds counts collection passes, including widened retries.
	Rounds int `json:"rounds" yaml:"rounds"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

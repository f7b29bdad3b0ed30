package models

import (
	"fmt"
	"time"
)

// LikedTrack is one saved track from the user's Spotify library, flattened
// from the API's nested saved-track object.
type LikedTrack struct {
	TrackID    string `json:"track_id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms,omitempty"`
	Popularity int    `json:"popularity,omitempty"`
	AddedAt    string `json:"added_at"`
}

// IdentifierMapping links a Spotify track id to a ReccoBeats analysis id.
//
// A nil AnalysisID means the lookup did not resolve; Reason carries a short
// human-readable explanation (no match, lookup error, etc.) so coverage can
// be reported downstream.
type IdentifierMapping struct {
	TrackID    string  `json:"track_id"`
	AnalysisID *string `json:"analysis_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Resolved reports whether the mapping carries an analysis identifier.
func (m IdentifierMapping) Resolved() bool {
	return m.AnalysisID != nil && *m.AnalysisID != ""
}

// AudioFeatureRecord holds the named numeric audio descriptors fetched for a
// resolved track. Only resolved mappings produce a record.
type AudioFeatureRecord struct {
	TrackID    string             `json:"track_id"`
	AnalysisID string             `json:"analysis_id"`
	Features   map[string]float64 `json:"features"`
}

// RunSummary is the per-stage manifest written next to the stage output,
// mirroring the matched/unmatched counts printed at the end of a run.
type RunSummary struct {
	Stage        string    `json:"stage"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	TotalTracks  int       `json:"total_tracks"`
	Resolved     int       `json:"resolved,omitempty"`
	Unresolved   int       `json:"unresolved,omitempty"`
	WithFeatures int       `json:"with_features,omitempty"`
	Missing      int       `json:"missing_features,omitempty"`
}

// Coverage reports how much of the library made it through each stage.
type Coverage struct {
	LikedTracks      int      `json:"liked_tracks"`
	Resolved         int      `json:"resolved"`
	Unresolved       int      `json:"unresolved"`
	WithFeatures     int      `json:"with_features"`
	UnresolvedTitles []string `json:"unresolved_titles,omitempty"`
}

// ResolvedPercent returns the fraction of liked tracks with an analysis id as a percentage.
func (c Coverage) ResolvedPercent() float64 {
	if c.LikedTracks == 0 {
		return 0
	}
	return float64(c.Resolved) / float64(c.LikedTracks) * 100
}

// FeaturePercent returns the fraction of liked tracks with audio features as a percentage.
func (c Coverage) FeaturePercent() float64 {
	if c.LikedTracks == 0 {
		return 0
	}
	return float64(c.WithFeatures) / float64(c.LikedTracks) * 100
}

// PersistedResolution is a cached lookup result stored in the resolve cache.
//
// Implements [Model] for use with the generic [Repository] interface.
type PersistedResolution struct {
	id         string
	trackID    string
	analysisID *string
	reason     string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPersistedResolution creates a cache row for a completed lookup.
func NewPersistedResolution(trackID string, analysisID *string, reason string) *PersistedResolution {
	now := time.Now()
	return &PersistedResolution{
		trackID:    trackID,
		analysisID: analysisID,
		reason:     reason,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *PersistedResolution) ID() string           { return r.id }
func (r *PersistedResolution) CreatedAt() time.Time { return r.createdAt }
func (r *PersistedResolution) UpdatedAt() time.Time { return r.updatedAt }

func (r *PersistedResolution) TrackID() string     { return r.trackID }
func (r *PersistedResolution) AnalysisID() *string { return r.analysisID }
func (r *PersistedResolution) Reason() string      { return r.reason }

func (r *PersistedResolution) SetID(id string)          { r.id = id }
func (r *PersistedResolution) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *PersistedResolution) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Validate checks that the row identifies a track.
func (r *PersistedResolution) Validate() error {
	if r.trackID == "" {
		return fmt.Errorf("resolution requires a track_id")
	}
	if r.analysisID == nil && r.reason == "" {
		return fmt.Errorf("unresolved resolution requires a reason")
	}
	return nil
}

// Mapping converts the cached row back into the file record form.
func (r *PersistedResolution) Mapping() IdentifierMapping {
	return IdentifierMapping{
		TrackID:    r.trackID,
		AnalysisID: r.analysisID,
		Reason:     r.reason,
	}
}

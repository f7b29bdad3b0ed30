// Package models defines the record types exchanged between pipeline stages.
//
// The three stage outputs are plain data structures serialized as
// pretty-printed JSON arrays:
//
//   - [LikedTrack], written by the liked-songs fetcher
//   - [IdentifierMapping], written by the identifier resolver
//   - [AudioFeatureRecord], written by the audio-feature fetcher
//
// TrackID is the stable join key across all three files. An unresolved
// lookup is represented by a nil AnalysisID, never a sentinel string.
package models

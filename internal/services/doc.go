// Package services defines clients for the two external HTTP APIs the
// pipeline talks to.
//
// [LibraryService] is the authenticated source of the user's saved tracks
// (Spotify). [AnalysisService] is the audio-analysis provider (ReccoBeats)
// that assigns its own track identifiers and serves per-track audio
// features.
//
// The [OAuthService] interface extends [LibraryService] for OAuth2 providers
// so the CLI can drive the browser authorization flow without knowing the
// concrete service.
package services

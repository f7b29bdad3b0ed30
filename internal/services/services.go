package services

import (
	"context"

	"github.com/desertthunder/featx/internal/models"
	"golang.org/x/oauth2"
)

// LibraryService defines the interface for the music-streaming provider that
// holds the user's library.
type LibraryService interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// LikedTracks retrieves the user's full saved-track library, paginating
	// until the service reports no more pages. Records are returned in API
	// order and may contain duplicates from pagination overlap.
	LikedTracks(ctx context.Context) ([]models.LikedTrack, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends LibraryService for providers using the OAuth2
// authorization code flow.
type OAuthService interface {
	LibraryService

	// GetAuthURL returns the provider's authorization URL for the given state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 configuration for the callback server.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with previously saved tokens.
	OAuthenticate(ctx context.Context, tokens map[string]string) error
}

// PlaylistService extends LibraryService for providers that can create
// playlists in the user's account.
type PlaylistService interface {
	LibraryService

	// CurrentUserID returns the id of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates a private playlist and returns its id.
	CreatePlaylist(ctx context.Context, userID, name, description string) (string, error)

	// AddPlaylistTracks appends up to 100 track URIs to a playlist.
	AddPlaylistTracks(ctx context.Context, playlistID string, uris []string) error
}

// AnalysisTrack is one candidate returned by the analysis service's search endpoint.
type AnalysisTrack struct {
	ID     string
	Title  string
	Artist string
}

// AnalysisService defines the interface for the audio-analysis provider.
type AnalysisService interface {
	// LookupTracks maps streaming-service track ids to analysis ids in one
	// batched call. Ids absent from the result were not known to the service.
	LookupTracks(ctx context.Context, trackIDs []string) (map[string]string, error)

	// SearchTrack returns ranked candidates for a free-text query.
	SearchTrack(ctx context.Context, query string) ([]AnalysisTrack, error)

	// AudioFeatures fetches the named numeric feature set for an analysis id.
	AudioFeatures(ctx context.Context, analysisID string) (map[string]float64, error)

	// Name returns the name of the service (e.g., "ReccoBeats")
	Name() string
}

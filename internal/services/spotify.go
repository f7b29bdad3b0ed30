// Spotify API implementation of [LibraryService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyUser represents the authenticated user's profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a created playlist.
type SpotifyPlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifyService implements [LibraryService] for Spotify API interactions.
// Uses [oauth2] for authentication and the user-library-read scope for
// saved-track access.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		pageSize:   50,
	}, nil
}

// SetBaseClient overrides the HTTP client used for API calls. Used in tests
// to point the service at an httptest server.
func (s *SpotifyService) SetBaseClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

// SetPageSize overrides the saved-tracks page size (clamped to the API's 1-50 range).
func (s *SpotifyService) SetPageSize(size int) {
	if size <= 0 {
		size = 50
	}
	if size > 50 {
		size = 50
	}
	s.pageSize = size
}

// SetBaseURL overrides the API base URL. Used in tests.
func (s *SpotifyService) SetBaseURL(url string) {
	if url != "" {
		s.baseURL = url
	}
}

// Authenticate performs authentication with Spotify. Expects an "access_token",
// "refresh_token", or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		if refresh, ok := credentials["refresh_token"]; ok && refresh != "" {
			s.token.RefreshToken = refresh
		}
		return nil
	}

	if refresh, ok := credentials["refresh_token"]; ok && refresh != "" {
		source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh})
		token, err := source.Token()
		if err != nil {
			return fmt.Errorf("%w: token refresh failed: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token, or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate authenticates with previously saved tokens.
func (s *SpotifyService) OAuthenticate(ctx context.Context, tokens map[string]string) error {
	return s.Authenticate(ctx, tokens)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 configuration for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated GET request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	return s.do(ctx, http.MethodGet, endpoint, nil, result)
}

// do performs an authenticated request against the Spotify API, encoding
// payload as a JSON body when present.
//
// 401 and 403 responses map to [shared.ErrTokenExpired] and
// [shared.ErrAuthFailed] so callers can distinguish credential problems from
// transient failures.
func (s *SpotifyService) do(ctx context.Context, method, endpoint string, payload, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// LikedTracks retrieves the user's full saved-track library.
//
// Pages through /me/tracks until the API reports no next page or returns a
// short page. Records are flattened into [models.LikedTrack]; duplicates from
// pagination overlap are preserved for the caller to handle.
func (s *SpotifyService) LikedTracks(ctx context.Context) ([]models.LikedTrack, error) {
	var all []models.LikedTrack
	limit := s.pageSize
	offset := 0

	for {
		page, err := s.SavedTracks(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			all = append(all, flattenSavedTrack(item))
		}

		if page.Next == nil || len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return all, nil
}

// CurrentUserID returns the id of the authenticated user.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile response missing user id", shared.ErrAPIRequest)
	}
	return user.ID, nil
}

// CreatePlaylist creates a private playlist in the user's account and returns its id.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	if userID == "" || name == "" {
		return "", fmt.Errorf("%w: user id and playlist name are required", shared.ErrInvalidArgument)
	}

	payload := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	if err := s.do(ctx, http.MethodPost, endpoint, payload, &playlist); err != nil {
		return "", err
	}

	return playlist.ID, nil
}

// AddPlaylistTracks appends track URIs to a playlist. The API accepts at most
// 100 URIs per call; callers batch larger sets.
func (s *SpotifyService) AddPlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > 100 {
		return fmt.Errorf("%w: at most 100 tracks per request, got %d", shared.ErrInvalidArgument, len(uris))
	}

	payload := map[string]any{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	return s.do(ctx, http.MethodPost, endpoint, payload, nil)
}

// flattenSavedTrack extracts the pipeline's flat record from a saved-track object.
func flattenSavedTrack(item SpotifySavedTrack) models.LikedTrack {
	track := models.LikedTrack{
		TrackID:    item.Track.ID,
		Name:       item.Track.Name,
		Album:      item.Track.Album.Name,
		DurationMS: item.Track.DurationMS,
		Popularity: item.Track.Popularity,
		AddedAt:    item.AddedAt,
	}

	if len(item.Track.Artists) > 0 {
		track.Artist = item.Track.Artists[0].Name
	}

	return track
}

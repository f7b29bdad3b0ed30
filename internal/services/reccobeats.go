// ReccoBeats API implementation of [AnalysisService]
//
// The service keys tracks by its own ids but exposes the originating
// streaming-service URL in each track's href, which is how batch lookups are
// joined back to Spotify ids.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/featx/internal/shared"
)

const reccoBeatsBaseURL = "https://api.reccobeats.com"

// reccoTrack is a track object as returned by the /v1/track endpoints.
type reccoTrack struct {
	ID         string        `json:"id"`
	TrackTitle string        `json:"trackTitle"`
	Href       string        `json:"href"`
	Artists    []reccoArtist `json:"artists"`
}

type reccoArtist struct {
	Name string `json:"name"`
}

// reccoContent wraps list responses.
type reccoContent struct {
	Content []reccoTrack `json:"content"`
}

// ReccoBeatsService implements [AnalysisService] against the ReccoBeats REST API.
type ReccoBeatsService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewReccoBeatsService creates a new ReccoBeats client. The API key is
// optional; the public endpoints accept unauthenticated requests.
func NewReccoBeatsService(baseURL, apiKey string, client *http.Client) *ReccoBeatsService {
	if baseURL == "" {
		baseURL = reccoBeatsBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ReccoBeatsService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (r *ReccoBeatsService) Name() string {
	return "ReccoBeats"
}

// doRequest performs a GET request against the ReccoBeats API and decodes the
// JSON response into result.
func (r *ReccoBeatsService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: status 404", shared.ErrTrackNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: reccobeats status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// LookupTracks maps Spotify track ids to ReccoBeats ids in one batched call.
//
// The API echoes the source Spotify id as the last path segment of each
// track's href; ids missing from the response are simply absent from the
// returned map.
func (r *ReccoBeatsService) LookupTracks(ctx context.Context, trackIDs []string) (map[string]string, error) {
	if len(trackIDs) == 0 {
		return map[string]string{}, nil
	}

	endpoint := fmt.Sprintf("/v1/track?ids=%s", url.QueryEscape(strings.Join(trackIDs, ",")))

	var response reccoContent
	if err := r.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(response.Content))
	for _, track := range response.Content {
		sourceID := lastPathSegment(track.Href)
		if sourceID == "" || track.ID == "" {
			continue
		}
		resolved[sourceID] = track.ID
	}

	return resolved, nil
}

// SearchTrack returns ranked candidates for a free-text query.
func (r *ReccoBeatsService) SearchTrack(ctx context.Context, query string) ([]AnalysisTrack, error) {
	endpoint := fmt.Sprintf("/v1/track/search?searchText=%s", url.QueryEscape(query))

	var response reccoContent
	if err := r.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	candidates := make([]AnalysisTrack, 0, len(response.Content))
	for _, track := range response.Content {
		candidates = append(candidates, AnalysisTrack{
			ID:     track.ID,
			Title:  track.TrackTitle,
			Artist: joinArtists(track.Artists),
		})
	}

	return candidates, nil
}

// AudioFeatures fetches the named numeric feature set for a ReccoBeats id.
//
// The endpoint returns a flat object of mostly numeric attributes (tempo,
// energy, valence, ...); non-numeric fields like id and href are dropped.
func (r *ReccoBeatsService) AudioFeatures(ctx context.Context, analysisID string) (map[string]float64, error) {
	if analysisID == "" {
		return nil, fmt.Errorf("%w: empty analysis id", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/v1/track/%s/audio-features", url.PathEscape(analysisID))

	var raw map[string]any
	if err := r.doRequest(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	features := make(map[string]float64, len(raw))
	for key, value := range raw {
		if num, ok := value.(float64); ok {
			features[key] = num
		}
	}

	return features, nil
}

func lastPathSegment(href string) string {
	if href == "" {
		return ""
	}
	idx := strings.LastIndex(href, "/")
	if idx < 0 || idx == len(href)-1 {
		return ""
	}
	return href[idx+1:]
}

func joinArtists(artists []reccoArtist) string {
	parts := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist.Name != "" {
			parts = append(parts, artist.Name)
		}
	}
	return strings.Join(parts, ", ")
}

package tasks

import (
	"context"
	"fmt"
	"math"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
	"golang.org/x/time/rate"
)

// OtherPlaylist collects tracks that have no audio features to classify on.
const OtherPlaylist = "Other"

// addTracksBatchSize is the Spotify limit on track URIs per playlist-add call.
const addTracksBatchSize = 100

// featureRange bounds one audio feature. An infinite bound leaves that side open.
type featureRange struct {
	feature string
	min     float64
	max     float64
}

func atMost(feature string, v float64) featureRange {
	return featureRange{feature, math.Inf(-1), v}
}

func atLeast(feature string, v float64) featureRange {
	return featureRange{feature, v, math.Inf(1)}
}

func between(feature string, lo, hi float64) featureRange {
	return featureRange{feature, lo, hi}
}

func (r featureRange) contains(v float64) bool {
	return v >= r.min && v <= r.max
}

// distance is how far v sits outside the range, zero when inside.
func (r featureRange) distance(v float64) float64 {
	switch {
	case v < r.min:
		return r.min - v
	case v > r.max:
		return v - r.max
	default:
		return 0
	}
}

// playlistRule names a mood playlist and the feature ranges that select it.
type playlistRule struct {
	name        string
	description string
	ranges      []featureRange
}

func (p playlistRule) matches(features map[string]float64) bool {
	for _, r := range p.ranges {
		if !r.contains(features[r.feature]) {
			return false
		}
	}
	return true
}

func (p playlistRule) score(features map[string]float64) (satisfied int, distance float64) {
	for _, r := range p.ranges {
		v := features[r.feature]
		if r.contains(v) {
			satisfied++
		}
		distance += r.distance(v)
	}
	return satisfied, distance
}

// playlistRules are checked in order; the first full match wins.
var playlistRules = []playlistRule{
	{
		name:        "Chill Vibes",
		description: "Soft, mellow, and relaxing tracks. Ideal for winding down or background ambiance.",
		ranges: []featureRange{
			atMost("valence", 0.5),
			atMost("energy", 0.5),
			atLeast("acousticness", 0.3),
			atMost("tempo", 110),
			atMost("danceability", 0.7),
		},
	},
	{
		name:        "Sad & Moody",
		description: "Emotional, introspective, or melancholic songs. For reflective moments or sad vibes.",
		ranges: []featureRange{
			atMost("valence", 0.4),
			atMost("energy", 0.6),
			atLeast("acousticness", 0.2),
			atMost("tempo", 120),
		},
	},
	{
		name:        "Feel-Good",
		description: "Happy, upbeat, and energizing songs that lift your mood.",
		ranges: []featureRange{
			atLeast("valence", 0.6),
			atLeast("energy", 0.5),
			atLeast("danceability", 0.5),
			between("tempo", 85, 140),
			atMost("acousticness", 0.5),
		},
	},
	{
		name:        "Party Mode",
		description: "High-energy, danceable tracks. Perfect for getting the party started.",
		ranges: []featureRange{
			atLeast("energy", 0.6),
			atLeast("danceability", 0.7),
			atLeast("valence", 0.5),
			atLeast("tempo", 100),
			atMost("acousticness", 0.4),
		},
	},
	{
		name:        "Training & High Energy",
		description: "Fast-paced, energetic tracks to keep you moving during runs or cardio sessions.",
		ranges: []featureRange{
			atLeast("energy", 0.75),
			atLeast("tempo", 120),
			atLeast("danceability", 0.5),
			atMost("acousticness", 0.3),
		},
	},
	{
		name:        "Driving Mix",
		description: "Songs with a balanced, rhythmic feel. Great for road trips or long drives.",
		ranges: []featureRange{
			between("tempo", 90, 150),
			between("energy", 0.5, 0.9),
			atLeast("danceability", 0.5),
			atMost("acousticness", 0.5),
		},
	},
}

const otherDescription = "A catch-all playlist for songs without audio features."

// ClassifyTrack assigns a feature set to a mood playlist. A full rule match
// wins in definition order; otherwise the rule satisfying the most ranges
// wins, ties broken by the smallest total distance outside the ranges.
// Missing features count as zero.
func ClassifyTrack(features map[string]float64) string {
	for _, rule := range playlistRules {
		if rule.matches(features) {
			return rule.name
		}
	}

	best := playlistRules[0].name
	bestSatisfied := -1
	bestDistance := math.Inf(1)
	for _, rule := range playlistRules {
		satisfied, distance := rule.score(features)
		if satisfied > bestSatisfied || (satisfied == bestSatisfied && distance < bestDistance) {
			best = rule.name
			bestSatisfied = satisfied
			bestDistance = distance
		}
	}

	return best
}

// PlaylistsOpts contains configuration for the playlist-build stage.
type PlaylistsOpts struct {
	FeaturesPath string  // Audio features file (default: data/processed/audio_features.json)
	LikedPath    string  // Liked songs file; tracks without features land in Other
	DryRun       bool    // Classify and report without touching the account
	RateLimit    float64 // Requests per second against the Spotify API (default: 2)
}

// PlaylistsResult contains the outcome of a playlist-build run.
type PlaylistsResult struct {
	Assignments map[string][]string // playlist name -> track URIs
	Created     map[string]string   // playlist name -> playlist id, empty on dry run
	DryRun      bool
}

// CreatePlaylists classifies every track with audio features into a mood
// playlist and pushes the playlists to the user's Spotify account. Liked
// tracks without a feature record land in the Other playlist. With DryRun
// set, classification runs but no playlist is created or modified.
func (e *PipelineEngine) CreatePlaylists(ctx context.Context, prog chan<- ProgressUpdate, svc services.PlaylistService, opts PlaylistsOpts) (*PlaylistsResult, error) {
	if opts.FeaturesPath == "" {
		opts.FeaturesPath = "data/processed/audio_features.json"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	var records []models.AudioFeatureRecord
	if err := shared.ReadJSONFile(opts.FeaturesPath, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	assignments := map[string][]string{}
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		name := ClassifyTrack(record.Features)
		assignments[name] = append(assignments[name], trackURI(record.TrackID))
		seen[record.TrackID] = true
	}

	// Liked tracks without a feature record have nothing to classify on.
	if opts.LikedPath != "" {
		var liked []models.LikedTrack
		if err := shared.ReadJSONFile(opts.LikedPath, &liked); err == nil {
			for _, track := range liked {
				if !seen[track.TrackID] && track.TrackID != "" {
					assignments[OtherPlaylist] = append(assignments[OtherPlaylist], trackURI(track.TrackID))
				}
			}
		}
	}

	total := 0
	for _, uris := range assignments {
		total += len(uris)
	}
	e.sendProgress(prog, classifiedUpdate(total, len(assignments)))

	result := &PlaylistsResult{
		Assignments: assignments,
		Created:     map[string]string{},
		DryRun:      opts.DryRun,
	}

	if opts.DryRun {
		return result, nil
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}

	userID, err := svc.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user profile: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	names := PlaylistNames()

	for step, name := range names {
		uris := assignments[name]
		if len(uris) == 0 {
			continue
		}

		e.sendProgress(prog, pushPlaylistUpdate(step+1, len(names), name, len(uris)))

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
		}

		playlistID, err := svc.CreatePlaylist(ctx, userID, name, playlistDescription(name))
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
		}
		result.Created[name] = playlistID

		for start := 0; start < len(uris); start += addTracksBatchSize {
			end := start + addTracksBatchSize
			if end > len(uris) {
				end = len(uris)
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
			}
			if err := svc.AddPlaylistTracks(ctx, playlistID, uris[start:end]); err != nil {
				return nil, fmt.Errorf("failed to add tracks to %q: %w", name, err)
			}
		}
	}

	return result, nil
}

// PlaylistNames returns every playlist in push order, Other last.
func PlaylistNames() []string {
	names := make([]string, 0, len(playlistRules)+1)
	for _, rule := range playlistRules {
		names = append(names, rule.name)
	}
	return append(names, OtherPlaylist)
}

func playlistDescription(name string) string {
	for _, rule := range playlistRules {
		if rule.name == name {
			return rule.description
		}
	}
	return otherDescription
}

func trackURI(trackID string) string {
	return "spotify:track:" + trackID
}

package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/featx/internal/matching"
	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
	"golang.org/x/time/rate"
)

// Reasons recorded on unresolved mappings.
const (
	ReasonNoMatch     = "no match above similarity threshold"
	ReasonLookupError = "lookup error"
)

// ResolveOpts contains configuration for the identifier-resolve stage.
type ResolveOpts struct {
	InputPath    string  // Liked songs file (default: data/raw/liked_songs.json)
	OutputPath   string  // Mapping file (default: data/processed/identifier_mapping.json)
	ManifestPath string  // Run summary path
	BatchSize    int     // Ids per batch lookup (default: 40, max: 40)
	RateLimit    float64 // Requests per second against the analysis API (default: 2)
	NoCache      bool    // Skip the resolve cache entirely
}

// ResolveResult contains the outcome of an identifier-resolve run.
// UnresolvedTitles lists "Artist - Name" for every unresolved track in input
// order, for the end-of-run summary.
type ResolveResult struct {
	Mappings         []models.IdentifierMapping
	Resolved         int
	Unresolved       int
	FromCache        int
	UnresolvedTitles []string
	OutputPath       string
}

// ResolveTracks maps every liked track to an analysis-service identifier, or
// records an explicit absence when no lookup succeeds.
//
// Resolution tries the batched id lookup first (the analysis service indexes
// tracks by their Spotify ids), then falls back to a fuzzy title+artist
// search for the remainder. Individual lookup failures never abort the run;
// they become unresolved mappings with a reason. Every input track id appears
// exactly once in the output.
func (e *PipelineEngine) ResolveTracks(ctx context.Context, prog chan<- ProgressUpdate, opts ResolveOpts) (*ResolveResult, error) {
	if e.analysis == nil {
		return nil, fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.InputPath == "" {
		opts.InputPath = "data/raw/liked_songs.json"
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "data/processed/identifier_mapping.json"
	}
	if opts.BatchSize <= 0 || opts.BatchSize > 40 {
		opts.BatchSize = 40
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	var tracks []models.LikedTrack
	if err := shared.ReadJSONFile(opts.InputPath, &tracks); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	// Input should already be unique by track id, but resolve guarantees
	// exactly-once output regardless.
	tracks = dedupeTracks(tracks)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	resolved := make(map[string]string, len(tracks))
	failures := make(map[string]string)
	fromCache := 0

	pending := make([]models.LikedTrack, 0, len(tracks))
	for _, track := range tracks {
		if e.cache != nil && !opts.NoCache {
			if cached, ok := e.cache.Lookup(track.TrackID); ok {
				fromCache++
				if cached.Resolved() {
					resolved[track.TrackID] = *cached.AnalysisID
				} else {
					failures[track.TrackID] = cached.Reason
				}
				continue
			}
		}
		pending = append(pending, track)
	}

	// Batched id lookup for everything the cache missed.
	batches := chunkTracks(pending, opts.BatchSize)
	unmatched := make([]models.LikedTrack, 0, len(pending))

	for i, batch := range batches {
		e.sendProgress(prog, lookupBatchUpdate(i+1, len(batches)))

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
		}

		ids := make([]string, len(batch))
		for j, track := range batch {
			ids[j] = track.TrackID
		}

		found, err := e.analysis.LookupTracks(ctx, ids)
		if err != nil {
			// A failed batch falls through to per-track search.
			unmatched = append(unmatched, batch...)
			continue
		}

		for _, track := range batch {
			if analysisID, ok := found[track.TrackID]; ok && analysisID != "" {
				resolved[track.TrackID] = analysisID
			} else {
				unmatched = append(unmatched, track)
			}
		}
	}

	// Fuzzy search fallback for tracks the id lookup did not know.
	for i, track := range unmatched {
		e.sendProgress(prog, searchFallbackUpdate(i+1, len(unmatched), track))

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
		}

		analysisID, err := e.searchTrack(ctx, track)
		switch {
		case err != nil:
			failures[track.TrackID] = fmt.Sprintf("%s: %v", ReasonLookupError, err)
		case analysisID == "":
			failures[track.TrackID] = ReasonNoMatch
		default:
			resolved[track.TrackID] = analysisID
		}
	}

	mappings := make([]models.IdentifierMapping, 0, len(tracks))
	var unresolvedTitles []string
	for _, track := range tracks {
		mapping := models.IdentifierMapping{TrackID: track.TrackID}
		if analysisID, ok := resolved[track.TrackID]; ok {
			id := analysisID
			mapping.AnalysisID = &id
		} else {
			mapping.Reason = failures[track.TrackID]
			if mapping.Reason == "" {
				mapping.Reason = ReasonNoMatch
			}
			unresolvedTitles = append(unresolvedTitles, fmt.Sprintf("%s - %s", track.Artist, track.Name))
		}
		mappings = append(mappings, mapping)

		if e.cache != nil && !opts.NoCache {
			if err := e.cache.Store(mapping); err != nil {
				// Cache write failures degrade to uncached behavior.
				continue
			}
		}
	}

	if err := shared.WriteJSONFile(opts.OutputPath, mappings); err != nil {
		return nil, fmt.Errorf("failed to write identifier mapping: %w", err)
	}

	e.sendProgress(prog, writeOutputUpdate(opts.OutputPath, len(mappings)))

	result := &ResolveResult{
		Mappings:         mappings,
		Resolved:         len(resolved),
		Unresolved:       len(mappings) - len(resolved),
		FromCache:        fromCache,
		UnresolvedTitles: unresolvedTitles,
		OutputPath:       opts.OutputPath,
	}

	if opts.ManifestPath != "" {
		summary := models.RunSummary{
			TotalTracks: len(mappings),
			Resolved:    result.Resolved,
			Unresolved:  result.Unresolved,
		}
		if err := writeManifest(opts.ManifestPath, "resolve", summary); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// searchTrack runs the fuzzy search fallback for one track. Returns an empty
// id when no candidate clears the match thresholds.
func (e *PipelineEngine) searchTrack(ctx context.Context, track models.LikedTrack) (string, error) {
	query := fmt.Sprintf("%s %s", track.Name, track.Artist)

	results, err := e.analysis.SearchTrack(ctx, query)
	if err != nil {
		return "", err
	}

	candidates := make([]matching.Candidate, len(results))
	for i, result := range results {
		candidates[i] = matching.Candidate{
			ID:     result.ID,
			Title:  result.Title,
			Artist: result.Artist,
		}
	}

	best, _, ok := matching.BestMatch(track.Name, track.Artist, candidates)
	if !ok {
		return "", nil
	}

	return best.ID, nil
}

// chunkTracks splits tracks into batches of at most size.
func chunkTracks(tracks []models.LikedTrack, size int) [][]models.LikedTrack {
	if len(tracks) == 0 {
		return nil
	}

	var batches [][]models.LikedTrack
	for start := 0; start < len(tracks); start += size {
		end := start + size
		if end > len(tracks) {
			end = len(tracks)
		}
		batches = append(batches, tracks[start:end])
	}

	return batches
}

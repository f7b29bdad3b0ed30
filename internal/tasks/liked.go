package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
)

// LikedOpts contains configuration for the liked-songs stage.
type LikedOpts struct {
	OutputPath   string // Destination JSON file (default: data/raw/liked_songs.json)
	ManifestPath string // Run summary path (default: <output dir>/liked_manifest.json)
}

// LikedResult contains the outcome of a liked-songs fetch.
type LikedResult struct {
	Tracks     []models.LikedTrack // De-duplicated library, API order preserved
	Fetched    int                 // Raw records received before de-duplication
	Duplicates int                 // Records dropped by de-duplication
	OutputPath string
}

// FetchLiked downloads the user's complete liked-songs library and writes it
// to the raw JSON file.
//
// The write is all-or-nothing: authentication failures and mid-pagination
// fetch failures abort before anything is written, so downstream stages never
// see a truncated library. Duplicate track ids from pagination overlap are
// dropped, keeping the first occurrence.
func (e *PipelineEngine) FetchLiked(ctx context.Context, prog chan<- ProgressUpdate, opts LikedOpts) (*LikedResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "data/raw/liked_songs.json"
	}

	e.sendProgress(prog, fetchingLibraryUpdate())

	raw, err := e.library.LikedTracks(ctx)
	if err != nil {
		return nil, classifyLibraryError(err)
	}

	e.sendProgress(prog, fetchedLibraryUpdate(len(raw)))

	tracks := dedupeTracks(raw)

	if err := shared.WriteJSONFile(opts.OutputPath, tracks); err != nil {
		return nil, fmt.Errorf("failed to write liked songs: %w", err)
	}

	e.sendProgress(prog, writeOutputUpdate(opts.OutputPath, len(tracks)))

	if opts.ManifestPath != "" {
		summary := models.RunSummary{TotalTracks: len(tracks)}
		if err := writeManifest(opts.ManifestPath, "liked", summary); err != nil {
			return nil, err
		}
	}

	return &LikedResult{
		Tracks:     tracks,
		Fetched:    len(raw),
		Duplicates: len(raw) - len(tracks),
		OutputPath: opts.OutputPath,
	}, nil
}

// classifyLibraryError maps service errors onto the stage-level taxonomy:
// credential problems stay auth failures, everything else is a fetch failure.
func classifyLibraryError(err error) error {
	if errors.Is(err, shared.ErrAuthFailed) ||
		errors.Is(err, shared.ErrTokenExpired) ||
		errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrMissingCredentials) {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
}

// dedupeTracks drops repeated track ids, keeping the first occurrence.
func dedupeTracks(tracks []models.LikedTrack) []models.LikedTrack {
	seen := make(map[string]struct{}, len(tracks))
	deduped := make([]models.LikedTrack, 0, len(tracks))

	for _, track := range tracks {
		if track.TrackID == "" {
			continue
		}
		if _, dup := seen[track.TrackID]; dup {
			continue
		}
		seen[track.TrackID] = struct{}{}
		deduped = append(deduped, track)
	}

	return deduped
}

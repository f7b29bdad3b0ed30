package tasks

import (
	"fmt"

	"github.com/desertthunder/featx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	Dedupe
	LookupBatch
	SearchFallback
	FetchFeatures
	Classify
	PushPlaylist
	WriteOutput
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case Dedupe:
		return "dedupe"
	case LookupBatch:
		return "lookup_batch"
	case SearchFallback:
		return "search_fallback"
	case FetchFeatures:
		return "fetch_features"
	case Classify:
		return "classify"
	case PushPlaylist:
		return "push_playlist"
	case WriteOutput:
		return "write_output"
	default:
		return ""
	}
}

func fetchingLibraryUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    1,
		Total:   1,
		Message: "Fetching liked songs from Spotify...",
	}
}

func fetchedLibraryUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dedupe,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d liked songs", count),
	}
}

func lookupBatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up track batch...", step, total),
	}
}

func searchFallbackUpdate(step, total int, track models.LikedTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchFallback,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s - %s", step, total, track.Artist, track.Name),
	}
}

func fetchFeaturesUpdate(step, total int, trackID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching features for %s", step, total, trackID),
	}
}

func classifiedUpdate(count, playlists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classify,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Classified %d tracks across %d playlists", count, playlists),
	}
}

func pushPlaylistUpdate(step, total int, name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks to %s", step, total, tracks, name),
	}
}

func writeOutputUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d records to %s", count, path),
	}
}

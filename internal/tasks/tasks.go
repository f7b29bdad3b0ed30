// Package tasks implements the three pipeline stages: fetching liked songs,
// resolving analysis identifiers, and fetching audio features.
//
// The core abstraction is PipelineEngine, which owns the service clients and
// stage logic. Stages communicate only through JSON files on disk; each stage
// reads its predecessor's output and overwrites its own output whole.
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
)

// ResolveCacher caches completed identifier lookups across resolve runs.
type ResolveCacher interface {
	// Lookup returns the cached mapping for a track id, if any.
	Lookup(trackID string) (models.IdentifierMapping, bool)

	// Store caches a completed lookup.
	Store(mapping models.IdentifierMapping) error
}

// PipelineEngine runs the pipeline stages against the configured services.
type PipelineEngine struct {
	library  services.LibraryService
	analysis services.AnalysisService
	cache    ResolveCacher
}

// NewPipelineEngine creates a new PipelineEngine with the provided services.
// The cache may be nil, in which case every lookup hits the network.
func NewPipelineEngine(library services.LibraryService, analysis services.AnalysisService, cache ResolveCacher) *PipelineEngine {
	return &PipelineEngine{
		library:  library,
		analysis: analysis,
		cache:    cache,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PipelineEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// writeManifest writes the per-stage run summary next to the stage output.
//
// If a manifest from a previous run exists, its created_at is preserved so
// the file records when the pipeline first produced this stage's output.
func writeManifest(path, stage string, summary models.RunSummary) error {
	now := time.Now()
	summary.Stage = stage
	summary.CreatedAt = now
	summary.UpdatedAt = now

	if _, err := os.Stat(path); err == nil {
		var existing models.RunSummary
		if err := shared.ReadJSONFile(path, &existing); err == nil && !existing.CreatedAt.IsZero() {
			summary.CreatedAt = existing.CreatedAt
		}
	}

	if err := shared.WriteJSONFile(path, summary); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
	"golang.org/x/time/rate"
)

// FeaturesOpts contains configuration for the audio-features stage.
type FeaturesOpts struct {
	InputPath    string  // Mapping file (default: data/processed/identifier_mapping.json)
	OutputPath   string  // Features file (default: data/processed/audio_features.json)
	ManifestPath string  // Run summary path
	RateLimit    float64 // Requests per second against the analysis API (default: 2)
}

// FeatureMiss records a resolved track whose feature fetch failed.
type FeatureMiss struct {
	TrackID    string
	AnalysisID string
	Err        error
}

// FeaturesResult contains the outcome of an audio-features run.
type FeaturesResult struct {
	Records    []models.AudioFeatureRecord
	Skipped    int // Unresolved mappings, never attempted
	Misses     []FeatureMiss
	OutputPath string
}

// FetchAudioFeatures downloads audio features for every resolved mapping and
// writes them to the features JSON file.
//
// Unresolved mappings are skipped, never emitted with empty features. A track
// whose fetch fails is recorded as a miss and excluded from the output; the
// run continues with the remaining tracks.
func (e *PipelineEngine) FetchAudioFeatures(ctx context.Context, prog chan<- ProgressUpdate, opts FeaturesOpts) (*FeaturesResult, error) {
	if e.analysis == nil {
		return nil, fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.InputPath == "" {
		opts.InputPath = "data/processed/identifier_mapping.json"
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "data/processed/audio_features.json"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	var mappings []models.IdentifierMapping
	if err := shared.ReadJSONFile(opts.InputPath, &mappings); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resolved := make([]models.IdentifierMapping, 0, len(mappings))
	skipped := 0
	for _, mapping := range mappings {
		if mapping.Resolved() {
			resolved = append(resolved, mapping)
		} else {
			skipped++
		}
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	records := make([]models.AudioFeatureRecord, 0, len(resolved))
	var misses []FeatureMiss

	for i, mapping := range resolved {
		e.sendProgress(prog, fetchFeaturesUpdate(i+1, len(resolved), mapping.TrackID))

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
		}

		features, err := e.analysis.AudioFeatures(ctx, *mapping.AnalysisID)
		if err != nil {
			misses = append(misses, FeatureMiss{
				TrackID:    mapping.TrackID,
				AnalysisID: *mapping.AnalysisID,
				Err:        err,
			})
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
			}
			continue
		}

		records = append(records, models.AudioFeatureRecord{
			TrackID:    mapping.TrackID,
			AnalysisID: *mapping.AnalysisID,
			Features:   features,
		})
	}

	if err := shared.WriteJSONFile(opts.OutputPath, records); err != nil {
		return nil, fmt.Errorf("failed to write audio features: %w", err)
	}

	e.sendProgress(prog, writeOutputUpdate(opts.OutputPath, len(records)))

	if opts.ManifestPath != "" {
		summary := models.RunSummary{
			TotalTracks:  len(mappings),
			Resolved:     len(resolved),
			Unresolved:   skipped,
			WithFeatures: len(records),
			Missing:      len(misses),
		}
		if err := writeManifest(opts.ManifestPath, "features", summary); err != nil {
			return nil, err
		}
	}

	return &FeaturesResult{
		Records:    records,
		Skipped:    skipped,
		Misses:     misses,
		OutputPath: opts.OutputPath,
	}, nil
}

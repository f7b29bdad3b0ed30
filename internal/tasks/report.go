package tasks

import (
	"fmt"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
)

// maxUnresolvedTitles caps the unresolved-track listing in the coverage
// report. Coverage.Unresolved still carries the full count.
const maxUnresolvedTitles = 10

// ReportOpts names the three stage files the coverage report reads.
type ReportOpts struct {
	LikedPath    string // Default: data/raw/liked_songs.json
	MappingPath  string // Default: data/processed/identifier_mapping.json
	FeaturesPath string // Default: data/processed/audio_features.json
}

// BuildCoverage summarizes pipeline completeness from the stage files on
// disk. The liked-songs file is required; mapping and features files are
// optional so the report works after any stage.
func BuildCoverage(opts ReportOpts) (*models.Coverage, error) {
	if opts.LikedPath == "" {
		opts.LikedPath = "data/raw/liked_songs.json"
	}
	if opts.MappingPath == "" {
		opts.MappingPath = "data/processed/identifier_mapping.json"
	}
	if opts.FeaturesPath == "" {
		opts.FeaturesPath = "data/processed/audio_features.json"
	}

	var tracks []models.LikedTrack
	if err := shared.ReadJSONFile(opts.LikedPath, &tracks); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	titles := make(map[string]string, len(tracks))
	for _, track := range tracks {
		titles[track.TrackID] = fmt.Sprintf("%s - %s", track.Artist, track.Name)
	}

	cov := &models.Coverage{LikedTracks: len(tracks)}

	var mappings []models.IdentifierMapping
	if err := shared.ReadJSONFile(opts.MappingPath, &mappings); err == nil {
		for _, mapping := range mappings {
			if mapping.Resolved() {
				cov.Resolved++
				continue
			}
			cov.Unresolved++
			if len(cov.UnresolvedTitles) >= maxUnresolvedTitles {
				continue
			}
			if title, ok := titles[mapping.TrackID]; ok {
				cov.UnresolvedTitles = append(cov.UnresolvedTitles, title)
			} else {
				cov.UnresolvedTitles = append(cov.UnresolvedTitles, mapping.TrackID)
			}
		}
	}

	var records []models.AudioFeatureRecord
	if err := shared.ReadJSONFile(opts.FeaturesPath, &records); err == nil {
		cov.WithFeatures = len(records)
	}

	return cov, nil
}

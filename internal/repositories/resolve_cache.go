package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/featx/internal/models"
)

// ResolveCacheAdapter implements tasks.ResolveCacher using ResolutionRepository.
//
// Cache hits skip the network entirely during the resolve stage. Duplicate
// stores are silently ignored (UNIQUE constraint violations).
type ResolveCacheAdapter struct {
	repo *ResolutionRepository
}

// NewResolveCacheAdapter creates a new ResolveCacheAdapter with the given repository
func NewResolveCacheAdapter(repo *ResolutionRepository) *ResolveCacheAdapter {
	return &ResolveCacheAdapter{repo: repo}
}

// Lookup returns the cached mapping for a track id, if any.
func (a *ResolveCacheAdapter) Lookup(trackID string) (models.IdentifierMapping, bool) {
	res, err := a.repo.GetByTrackID(trackID)
	if err != nil || res == nil {
		return models.IdentifierMapping{}, false
	}
	return res.Mapping(), true
}

// Store caches a completed lookup.
// Returns nil if the track is already cached (deduplication).
func (a *ResolveCacheAdapter) Store(mapping models.IdentifierMapping) error {
	if existing, err := a.repo.GetByTrackID(mapping.TrackID); err == nil && existing != nil {
		return nil
	}

	res := models.NewPersistedResolution(mapping.TrackID, mapping.AnalysisID, mapping.Reason)

	if err := a.repo.Create(res); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache resolution: %w", err)
	}

	return nil
}

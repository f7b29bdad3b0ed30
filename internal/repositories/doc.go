// Package repositories provides the persistence layer for the resolve cache.
//
// Lookups against the analysis service are slow (one or two HTTP calls per
// unknown track), so completed resolutions are cached in SQLite keyed by the
// streaming-service track id. Re-running the resolve stage reuses cached
// rows and only sends misses to the network.
package repositories

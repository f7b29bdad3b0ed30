package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
	tu "github.com/desertthunder/featx/internal/testing"
)

func makeTracks(n int) []models.LikedTrack {
	tracks := make([]models.LikedTrack, 0, n)
	for i := 1; i <= n; i++ {
		tracks = append(tracks, models.LikedTrack{
			TrackID: fmt.Sprintf("T%d", i),
			Name:    fmt.Sprintf("Song %d", i),
			Artist:  fmt.Sprintf("Artist %d", i),
		})
	}
	return tracks
}

func readMappings(t *testing.T, path string) []models.IdentifierMapping {
	t.Helper()
	var mappings []models.IdentifierMapping
	if err := shared.ReadJSONFile(path, &mappings); err != nil {
		t.Fatalf("failed to read mapping file: %v", err)
	}
	return mappings
}

func TestFetchLiked(t *testing.T) {
	ctx := context.Background()

	t.Run("writes deduplicated library", func(t *testing.T) {
		// Two pages of 75 with a 10-track overlap, 150 unique ids total.
		raw := makeTracks(150)
		raw = append(raw, makeTracks(10)...)

		engine := NewPipelineEngine(&tu.MockLibrary{Tracks: raw}, nil, nil)
		output := filepath.Join(t.TempDir(), "liked_songs.json")

		result, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: output})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Tracks) != 150 {
			t.Errorf("expected 150 tracks after dedupe, got %d", len(result.Tracks))
		}
		if result.Duplicates != 10 {
			t.Errorf("expected 10 duplicates, got %d", result.Duplicates)
		}
		tu.AssertFileExists(t, output)

		var written []models.LikedTrack
		if err := shared.ReadJSONFile(output, &written); err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if len(written) != 150 {
			t.Errorf("expected 150 written tracks, got %d", len(written))
		}
		if written[0].TrackID != "T1" {
			t.Errorf("expected first occurrence kept, got %s", written[0].TrackID)
		}
	})

	t.Run("keeps first occurrence on duplicate ids", func(t *testing.T) {
		raw := []models.LikedTrack{
			{TrackID: "T1", Name: "Original"},
			{TrackID: "T1", Name: "Duplicate"},
		}

		engine := NewPipelineEngine(&tu.MockLibrary{Tracks: raw}, nil, nil)
		output := filepath.Join(t.TempDir(), "liked_songs.json")

		result, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: output})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Tracks) != 1 || result.Tracks[0].Name != "Original" {
			t.Errorf("expected first occurrence kept, got %+v", result.Tracks)
		}
	})

	t.Run("auth failure writes nothing", func(t *testing.T) {
		library := &tu.MockLibrary{AuthErr: fmt.Errorf("%w: bad token", shared.ErrTokenExpired)}
		engine := NewPipelineEngine(library, nil, nil)
		output := filepath.Join(t.TempDir(), "liked_songs.json")

		_, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: output})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected auth error, got %v", err)
		}
		tu.AssertNoFile(t, output)
	})

	t.Run("fetch failure writes nothing", func(t *testing.T) {
		library := &tu.MockLibrary{FetchErr: errors.New("connection reset")}
		engine := NewPipelineEngine(library, nil, nil)
		output := filepath.Join(t.TempDir(), "liked_songs.json")

		_, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: output})
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected fetch error, got %v", err)
		}
		tu.AssertNoFile(t, output)
	})

	t.Run("missing library service", func(t *testing.T) {
		engine := NewPipelineEngine(nil, nil, nil)
		_, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: filepath.Join(t.TempDir(), "out.json")})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected service unavailable, got %v", err)
		}
	})

	t.Run("writes manifest when requested", func(t *testing.T) {
		engine := NewPipelineEngine(&tu.MockLibrary{Tracks: makeTracks(3)}, nil, nil)
		dir := t.TempDir()
		output := filepath.Join(dir, "liked_songs.json")
		manifest := filepath.Join(dir, "liked_manifest.json")

		if _, err := engine.FetchLiked(ctx, nil, LikedOpts{OutputPath: output, ManifestPath: manifest}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var summary models.RunSummary
		if err := shared.ReadJSONFile(manifest, &summary); err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if summary.Stage != "liked" || summary.TotalTracks != 3 {
			t.Errorf("unexpected manifest: %+v", summary)
		}
	})

	t.Run("manifest preserves created_at across runs", func(t *testing.T) {
		engine := NewPipelineEngine(&tu.MockLibrary{Tracks: makeTracks(1)}, nil, nil)
		dir := t.TempDir()
		output := filepath.Join(dir, "liked_songs.json")
		manifest := filepath.Join(dir, "liked_manifest.json")
		opts := LikedOpts{OutputPath: output, ManifestPath: manifest}

		if _, err := engine.FetchLiked(ctx, nil, opts); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		var first models.RunSummary
		if err := shared.ReadJSONFile(manifest, &first); err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}

		if _, err := engine.FetchLiked(ctx, nil, opts); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		var second models.RunSummary
		if err := shared.ReadJSONFile(manifest, &second); err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}

		if !second.CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("expected created_at preserved, got %v then %v", first.CreatedAt, second.CreatedAt)
		}
	})
}

func TestResolveTracks(t *testing.T) {
	ctx := context.Background()

	writeLiked := func(t *testing.T, dir string, tracks []models.LikedTrack) string {
		t.Helper()
		path := filepath.Join(dir, "liked_songs.json")
		if err := shared.WriteJSONFile(path, tracks); err != nil {
			t.Fatalf("failed to write liked file: %v", err)
		}
		return path
	}

	t.Run("every input id appears exactly once", func(t *testing.T) {
		tracks := makeTracks(20)
		known := map[string]string{}
		for i, track := range tracks {
			if i%2 == 0 {
				known[track.TrackID] = "R" + track.TrackID
			}
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, &tu.MockAnalysis{Known: known}, nil)
		output := filepath.Join(dir, "mapping.json")

		result, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		seen := map[string]int{}
		for _, mapping := range result.Mappings {
			seen[mapping.TrackID]++
		}
		if len(seen) != 20 {
			t.Errorf("expected 20 unique ids, got %d", len(seen))
		}
		for id, count := range seen {
			if count != 1 {
				t.Errorf("id %s appears %d times", id, count)
			}
		}
		if result.Resolved != 10 || result.Unresolved != 10 {
			t.Errorf("expected 10/10 split, got %d/%d", result.Resolved, result.Unresolved)
		}
	})

	t.Run("unresolved mappings carry a reason", func(t *testing.T) {
		tracks := makeTracks(2)
		dir := t.TempDir()
		engine := NewPipelineEngine(nil, &tu.MockAnalysis{}, nil)
		output := filepath.Join(dir, "mapping.json")

		_, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, mapping := range readMappings(t, output) {
			if mapping.AnalysisID != nil {
				t.Errorf("expected unresolved mapping for %s", mapping.TrackID)
			}
			if mapping.Reason == "" {
				t.Errorf("expected reason on unresolved mapping for %s", mapping.TrackID)
			}
		}
	})

	t.Run("single search failure does not abort the run", func(t *testing.T) {
		tracks := makeTracks(20)
		analysis := &tu.MockAnalysis{
			Searches: map[string][]services.AnalysisTrack{},
			Failures: map[string]error{},
		}
		for _, track := range tracks {
			query := fmt.Sprintf("%s %s", track.Name, track.Artist)
			if track.TrackID == "T7" {
				analysis.Failures[query] = errors.New("502 bad gateway")
				continue
			}
			analysis.Searches[query] = []services.AnalysisTrack{
				{ID: "R" + track.TrackID, Title: track.Name, Artist: track.Artist},
			}
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		output := filepath.Join(dir, "mapping.json")

		result, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Resolved != 19 || result.Unresolved != 1 {
			t.Errorf("expected 19 resolved and 1 unresolved, got %d/%d", result.Resolved, result.Unresolved)
		}

		for _, mapping := range result.Mappings {
			if mapping.TrackID == "T7" {
				if mapping.AnalysisID != nil {
					t.Error("expected T7 unresolved")
				}
				if !strings.Contains(mapping.Reason, ReasonLookupError) {
					t.Errorf("expected lookup error reason, got %q", mapping.Reason)
				}
			} else if mapping.AnalysisID == nil {
				t.Errorf("expected %s resolved", mapping.TrackID)
			}
		}
	})

	t.Run("batch lookup failure degrades to search", func(t *testing.T) {
		tracks := makeTracks(3)
		analysis := &tu.MockAnalysis{
			LookupErr: errors.New("429 too many requests"),
			Searches:  map[string][]services.AnalysisTrack{},
		}
		for _, track := range tracks {
			query := fmt.Sprintf("%s %s", track.Name, track.Artist)
			analysis.Searches[query] = []services.AnalysisTrack{
				{ID: "R" + track.TrackID, Title: track.Name, Artist: track.Artist},
			}
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)

		result, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: filepath.Join(dir, "mapping.json"),
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Resolved != 3 {
			t.Errorf("expected 3 resolved via search fallback, got %d", result.Resolved)
		}
		if analysis.SearchCalls != 3 {
			t.Errorf("expected 3 search calls, got %d", analysis.SearchCalls)
		}
	})

	t.Run("search candidates below threshold stay unresolved", func(t *testing.T) {
		tracks := []models.LikedTrack{{TrackID: "T1", Name: "Paranoid Android", Artist: "Radiohead"}}
		analysis := &tu.MockAnalysis{
			Searches: map[string][]services.AnalysisTrack{
				"Paranoid Android Radiohead": {
					{ID: "RX", Title: "Completely Different Song", Artist: "Somebody Else"},
				},
			},
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		output := filepath.Join(dir, "mapping.json")

		_, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		mappings := readMappings(t, output)
		if mappings[0].AnalysisID != nil {
			t.Error("expected no match for dissimilar candidate")
		}
		if mappings[0].Reason != ReasonNoMatch {
			t.Errorf("expected no-match reason, got %q", mappings[0].Reason)
		}
	})

	t.Run("unresolved titles are listed in input order", func(t *testing.T) {
		tracks := makeTracks(4)
		analysis := &tu.MockAnalysis{Known: map[string]string{"T2": "R2"}}
		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)

		result, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: filepath.Join(dir, "mapping.json"),
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"Artist 1 - Song 1", "Artist 3 - Song 3", "Artist 4 - Song 4"}
		if len(result.UnresolvedTitles) != len(want) {
			t.Fatalf("expected %d unresolved titles, got %v", len(want), result.UnresolvedTitles)
		}
		for i := range want {
			if result.UnresolvedTitles[i] != want[i] {
				t.Errorf("title %d: got %q, want %q", i, result.UnresolvedTitles[i], want[i])
			}
		}
	})

	t.Run("cache hits skip the network", func(t *testing.T) {
		tracks := makeTracks(2)
		cache := tu.NewMemoryCache()
		analysisID := "R-cached"
		cache.Entries["T1"] = models.IdentifierMapping{TrackID: "T1", AnalysisID: &analysisID}
		cache.Entries["T2"] = models.IdentifierMapping{TrackID: "T2", Reason: ReasonNoMatch}

		analysis := &tu.MockAnalysis{}
		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, cache)

		result, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: filepath.Join(dir, "mapping.json"),
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.FromCache != 2 {
			t.Errorf("expected 2 cache hits, got %d", result.FromCache)
		}
		if analysis.LookupCalls != 0 || analysis.SearchCalls != 0 {
			t.Errorf("expected no network calls, got %d lookups and %d searches",
				analysis.LookupCalls, analysis.SearchCalls)
		}
	})

	t.Run("resolved lookups are stored in cache", func(t *testing.T) {
		tracks := makeTracks(1)
		cache := tu.NewMemoryCache()
		analysis := &tu.MockAnalysis{Known: map[string]string{"T1": "R1"}}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, cache)

		if _, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: filepath.Join(dir, "mapping.json"),
			RateLimit:  1000,
		}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cached, ok := cache.Lookup("T1")
		if !ok || cached.AnalysisID == nil || *cached.AnalysisID != "R1" {
			t.Errorf("expected cached resolution, got %+v (found=%v)", cached, ok)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		engine := NewPipelineEngine(nil, &tu.MockAnalysis{}, nil)
		_, err := engine.ResolveTracks(ctx, nil, ResolveOpts{
			InputPath:  filepath.Join(t.TempDir(), "nope.json"),
			OutputPath: filepath.Join(t.TempDir(), "mapping.json"),
			RateLimit:  1000,
		})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})

	t.Run("idempotent across runs", func(t *testing.T) {
		tracks := makeTracks(5)
		analysis := &tu.MockAnalysis{Known: map[string]string{"T1": "R1", "T3": "R3"}}
		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		output := filepath.Join(dir, "mapping.json")
		opts := ResolveOpts{
			InputPath:  writeLiked(t, dir, tracks),
			OutputPath: output,
			RateLimit:  1000,
		}

		if _, err := engine.ResolveTracks(ctx, nil, opts); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		first := readMappings(t, output)

		if _, err := engine.ResolveTracks(ctx, nil, opts); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		second := readMappings(t, output)

		if len(first) != len(second) {
			t.Fatalf("expected identical mapping counts, got %d and %d", len(first), len(second))
		}
		for i := range first {
			if first[i].TrackID != second[i].TrackID || first[i].Resolved() != second[i].Resolved() {
				t.Errorf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
			}
		}
	})
}

func TestFetchAudioFeatures(t *testing.T) {
	ctx := context.Background()

	writeMappings := func(t *testing.T, dir string, mappings []models.IdentifierMapping) string {
		t.Helper()
		path := filepath.Join(dir, "mapping.json")
		if err := shared.WriteJSONFile(path, mappings); err != nil {
			t.Fatalf("failed to write mapping file: %v", err)
		}
		return path
	}

	resolvedMapping := func(trackID, analysisID string) models.IdentifierMapping {
		return models.IdentifierMapping{TrackID: trackID, AnalysisID: &analysisID}
	}

	t.Run("unresolved mappings are skipped", func(t *testing.T) {
		mappings := []models.IdentifierMapping{
			resolvedMapping("T1", "R1"),
			{TrackID: "T2", Reason: ReasonNoMatch},
			resolvedMapping("T3", "R3"),
		}
		analysis := &tu.MockAnalysis{
			Features: map[string]map[string]float64{
				"R1": {"tempo": 120.0, "energy": 0.8},
				"R3": {"tempo": 96.5, "energy": 0.4},
			},
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		output := filepath.Join(dir, "features.json")

		result, err := engine.FetchAudioFeatures(ctx, nil, FeaturesOpts{
			InputPath:  writeMappings(t, dir, mappings),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", result.Skipped)
		}
		if len(result.Records) != 2 {
			t.Errorf("expected 2 records, got %d", len(result.Records))
		}

		var written []models.AudioFeatureRecord
		if err := shared.ReadJSONFile(output, &written); err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		for _, record := range written {
			if record.TrackID == "T2" {
				t.Error("unresolved track must not appear in features file")
			}
			if len(record.Features) == 0 {
				t.Errorf("record %s has empty features", record.TrackID)
			}
		}
	})

	t.Run("per-track failures are recorded as misses", func(t *testing.T) {
		mappings := []models.IdentifierMapping{
			resolvedMapping("T1", "R1"),
			resolvedMapping("T2", "R2"),
		}
		analysis := &tu.MockAnalysis{
			Features: map[string]map[string]float64{"R1": {"tempo": 120.0}},
			Failures: map[string]error{"R2": fmt.Errorf("%w: status 404", shared.ErrTrackNotFound)},
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		output := filepath.Join(dir, "features.json")

		result, err := engine.FetchAudioFeatures(ctx, nil, FeaturesOpts{
			InputPath:  writeMappings(t, dir, mappings),
			OutputPath: output,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Records) != 1 || result.Records[0].TrackID != "T1" {
			t.Errorf("expected only T1 in output, got %+v", result.Records)
		}
		if len(result.Misses) != 1 || result.Misses[0].TrackID != "T2" {
			t.Errorf("expected T2 recorded as miss, got %+v", result.Misses)
		}
	})

	t.Run("missing analysis service", func(t *testing.T) {
		engine := NewPipelineEngine(nil, nil, nil)
		_, err := engine.FetchAudioFeatures(ctx, nil, FeaturesOpts{
			InputPath:  filepath.Join(t.TempDir(), "mapping.json"),
			OutputPath: filepath.Join(t.TempDir(), "features.json"),
		})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected service unavailable, got %v", err)
		}
	})

	t.Run("writes manifest with miss counts", func(t *testing.T) {
		mappings := []models.IdentifierMapping{
			resolvedMapping("T1", "R1"),
			{TrackID: "T2", Reason: ReasonNoMatch},
		}
		analysis := &tu.MockAnalysis{
			Features: map[string]map[string]float64{"R1": {"tempo": 120.0}},
		}

		dir := t.TempDir()
		engine := NewPipelineEngine(nil, analysis, nil)
		manifest := filepath.Join(dir, "features_manifest.json")

		if _, err := engine.FetchAudioFeatures(ctx, nil, FeaturesOpts{
			InputPath:    writeMappings(t, dir, mappings),
			OutputPath:   filepath.Join(dir, "features.json"),
			ManifestPath: manifest,
			RateLimit:    1000,
		}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var summary models.RunSummary
		if err := shared.ReadJSONFile(manifest, &summary); err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if summary.Stage != "features" || summary.WithFeatures != 1 || summary.Unresolved != 1 {
			t.Errorf("unexpected manifest: %+v", summary)
		}
	})
}

func TestBuildCoverage(t *testing.T) {
	dir := t.TempDir()
	likedPath := filepath.Join(dir, "liked.json")
	mappingPath := filepath.Join(dir, "mapping.json")
	featuresPath := filepath.Join(dir, "features.json")

	tracks := makeTracks(4)
	if err := shared.WriteJSONFile(likedPath, tracks); err != nil {
		t.Fatal(err)
	}

	analysisID := "R1"
	mappings := []models.IdentifierMapping{
		{TrackID: "T1", AnalysisID: &analysisID},
		{TrackID: "T2", Reason: ReasonNoMatch},
		{TrackID: "T3", Reason: ReasonNoMatch},
		{TrackID: "T4", AnalysisID: &analysisID},
	}
	if err := shared.WriteJSONFile(mappingPath, mappings); err != nil {
		t.Fatal(err)
	}

	records := []models.AudioFeatureRecord{
		{TrackID: "T1", AnalysisID: "R1", Features: map[string]float64{"tempo": 120.0}},
	}
	if err := shared.WriteJSONFile(featuresPath, records); err != nil {
		t.Fatal(err)
	}

	t.Run("counts all three stages", func(t *testing.T) {
		cov, err := BuildCoverage(ReportOpts{
			LikedPath:    likedPath,
			MappingPath:  mappingPath,
			FeaturesPath: featuresPath,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cov.LikedTracks != 4 || cov.Resolved != 2 || cov.Unresolved != 2 || cov.WithFeatures != 1 {
			t.Errorf("unexpected coverage: %+v", cov)
		}
		if len(cov.UnresolvedTitles) != 2 {
			t.Errorf("expected 2 unresolved titles, got %v", cov.UnresolvedTitles)
		}
	})

	t.Run("tolerates missing later stages", func(t *testing.T) {
		cov, err := BuildCoverage(ReportOpts{
			LikedPath:    likedPath,
			MappingPath:  filepath.Join(dir, "absent.json"),
			FeaturesPath: filepath.Join(dir, "absent2.json"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cov.LikedTracks != 4 || cov.Resolved != 0 || cov.WithFeatures != 0 {
			t.Errorf("unexpected coverage: %+v", cov)
		}
	})

	t.Run("missing liked file is an error", func(t *testing.T) {
		if _, err := BuildCoverage(ReportOpts{LikedPath: filepath.Join(dir, "nope.json")}); err == nil {
			t.Error("expected error for missing liked file")
		}
	})

	t.Run("caps the unresolved title listing", func(t *testing.T) {
		capDir := t.TempDir()
		capTracks := makeTracks(15)
		capLiked := filepath.Join(capDir, "liked.json")
		if err := shared.WriteJSONFile(capLiked, capTracks); err != nil {
			t.Fatal(err)
		}

		unresolved := make([]models.IdentifierMapping, 0, len(capTracks))
		for _, track := range capTracks {
			unresolved = append(unresolved, models.IdentifierMapping{TrackID: track.TrackID, Reason: ReasonNoMatch})
		}
		capMapping := filepath.Join(capDir, "mapping.json")
		if err := shared.WriteJSONFile(capMapping, unresolved); err != nil {
			t.Fatal(err)
		}

		cov, err := BuildCoverage(ReportOpts{
			LikedPath:    capLiked,
			MappingPath:  capMapping,
			FeaturesPath: filepath.Join(capDir, "absent.json"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cov.Unresolved != 15 {
			t.Errorf("expected full unresolved count, got %d", cov.Unresolved)
		}
		if len(cov.UnresolvedTitles) != maxUnresolvedTitles {
			t.Errorf("expected %d listed titles, got %d", maxUnresolvedTitles, len(cov.UnresolvedTitles))
		}
	})
}

func TestChunkTracks(t *testing.T) {
	tracks := makeTracks(95)
	batches := chunkTracks(tracks, 40)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 40 || len(batches[1]) != 40 || len(batches[2]) != 15 {
		t.Errorf("unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}

	if chunkTracks(nil, 40) != nil {
		t.Error("expected nil for empty input")
	}
}

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/featx/internal/shared"
	"github.com/desertthunder/featx/internal/tasks"
	"github.com/desertthunder/featx/internal/ui"
	"github.com/urfave/cli/v3"
)

// manifestPath places a stage's run manifest next to its output file.
func manifestPath(outputPath, stage string) string {
	return filepath.Join(filepath.Dir(outputPath), stage+"_manifest.json")
}

// shortlist truncates items to max entries, replacing the remainder with an
// "and N more" line.
func shortlist(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	out := make([]string, 0, max+1)
	out = append(out, items[:max]...)
	return append(out, fmt.Sprintf("... and %d more", len(items)-max))
}

// progressWriter drains a progress channel, printing each update.
func (r *Runner) progressWriter(progressCh <-chan tasks.ProgressUpdate) {
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchPages, tasks.Dedupe:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.LookupBatch, tasks.SearchFallback, tasks.FetchFeatures, tasks.Classify, tasks.PushPlaylist:
			r.writePlain("   %s\n", update.Message)
		case tasks.WriteOutput:
			r.writePlain("💾 %s\n", update.Message)
		}
	}
}

// authenticateLibrary applies stored tokens to the library service.
func (r *Runner) authenticateLibrary(ctx context.Context) error {
	if r.library == nil {
		return fmt.Errorf("%w: Spotify credentials not configured, run 'featx setup database' and edit config.toml", shared.ErrServiceUnavailable)
	}

	tokens := r.config.Credentials.Spotify.Token()
	if tokens["access_token"] == "" && tokens["refresh_token"] == "" {
		return fmt.Errorf("%w: no stored tokens, run 'featx auth'", shared.ErrNotAuthenticated)
	}

	if err := r.library.Authenticate(ctx, tokens); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return nil
}

// Liked fetches the liked-songs library and writes the raw file.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.LikedOpts{OutputPath: cmd.String("output")}
	if opts.OutputPath == "" {
		opts.OutputPath = r.config.Pipeline.LikedFile
	}
	if !cmd.Bool("no-manifest") {
		opts.ManifestPath = manifestPath(opts.OutputPath, "liked")
	}

	if err := r.authenticateLibrary(ctx); err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); !reauthed || authErr != nil {
			return err
		}
	}

	r.logger.Info("fetching liked songs", "output", opts.OutputPath)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.progressWriter(progressCh)

	result, err := r.engine.FetchLiked(ctx, progressCh, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln(ui.Success(fmt.Sprintf("✓ Saved %d liked songs to %s", len(result.Tracks), result.OutputPath)))
	if result.Duplicates > 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("  Dropped %d duplicate records", result.Duplicates)))
	}

	return nil
}

// Resolve maps liked tracks to analysis-service identifiers.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ResolveOpts{
		InputPath:  cmd.String("input"),
		OutputPath: cmd.String("output"),
		BatchSize:  int(cmd.Int("batch-size")),
		RateLimit:  cmd.Float("rate"),
		NoCache:    cmd.Bool("no-cache"),
	}
	if opts.InputPath == "" {
		opts.InputPath = r.config.Pipeline.LikedFile
	}
	if opts.OutputPath == "" {
		opts.OutputPath = r.config.Pipeline.MappingFile
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = r.config.Pipeline.BatchSize
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Credentials.ReccoBeats.Rate
	}
	if !cmd.Bool("no-manifest") {
		opts.ManifestPath = manifestPath(opts.OutputPath, "resolve")
	}

	engine := r.engine
	if !opts.NoCache {
		cache, closeCache, err := r.openCache()
		if err != nil {
			return err
		}
		defer closeCache()
		if cache != nil {
			engine = tasks.NewPipelineEngine(r.library, r.analysis, cache)
		}
	}

	r.logger.Info("resolving identifiers", "input", opts.InputPath, "output", opts.OutputPath)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.progressWriter(progressCh)

	result, err := engine.ResolveTracks(ctx, progressCh, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Resolve Complete")
	r.writePlain("Resolved: %s\n", ui.Success(fmt.Sprintf("%d/%d", result.Resolved, len(result.Mappings))))
	r.writePlain("Unresolved: %s\n", ui.Warn(fmt.Sprintf("%d", result.Unresolved)))
	if result.FromCache > 0 {
		r.writePlain("From cache: %d\n", result.FromCache)
	}
	if len(result.UnresolvedTitles) > 0 {
		r.writePlain("%s\n", ui.Warn("Unresolved tracks:"))
		for _, line := range shortlist(result.UnresolvedTitles, 5) {
			r.writePlain("  - %s\n", line)
		}
	}

	return nil
}

// Features fetches audio features for resolved tracks.
func (r *Runner) Features(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.FeaturesOpts{
		InputPath:  cmd.String("input"),
		OutputPath: cmd.String("output"),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.InputPath == "" {
		opts.InputPath = r.config.Pipeline.MappingFile
	}
	if opts.OutputPath == "" {
		opts.OutputPath = r.config.Pipeline.FeaturesFile
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Credentials.ReccoBeats.Rate
	}
	if !cmd.Bool("no-manifest") {
		opts.ManifestPath = manifestPath(opts.OutputPath, "features")
	}

	r.logger.Info("fetching audio features", "input", opts.InputPath, "output", opts.OutputPath)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.progressWriter(progressCh)

	result, err := r.engine.FetchAudioFeatures(ctx, progressCh, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Features Complete")
	r.writePlain("With features: %s\n", ui.Success(fmt.Sprintf("%d", len(result.Records))))
	r.writePlain("Skipped (unresolved): %d\n", result.Skipped)
	if len(result.Misses) > 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("Missing features for %d tracks:", len(result.Misses))))
		for _, miss := range result.Misses {
			r.writePlain("  - %s: %v\n", miss.TrackID, miss.Err)
		}
	}

	return nil
}

// RunAll executes the three stages in order, stopping at the first stage error.
func (r *Runner) RunAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.Liked(ctx, cmd); err != nil {
		return err
	}
	if err := r.Resolve(ctx, cmd); err != nil {
		return err
	}
	return r.Features(ctx, cmd)
}

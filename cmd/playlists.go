package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
	"github.com/desertthunder/featx/internal/tasks"
	"github.com/desertthunder/featx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Playlists builds mood playlists from the audio-features file.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.PlaylistsOpts{
		FeaturesPath: cmd.String("input"),
		LikedPath:    cmd.String("liked"),
		DryRun:       cmd.Bool("dry-run"),
		RateLimit:    cmd.Float("rate"),
	}
	if opts.FeaturesPath == "" {
		opts.FeaturesPath = r.config.Pipeline.FeaturesFile
	}
	if opts.LikedPath == "" {
		opts.LikedPath = r.config.Pipeline.LikedFile
	}

	var svc services.PlaylistService
	if !opts.DryRun {
		if err := r.authenticateLibrary(ctx); err != nil {
			if reauthed, authErr := r.handleAuthError(ctx, err, cmd); !reauthed || authErr != nil {
				return err
			}
		}

		playlistSvc, ok := r.library.(services.PlaylistService)
		if !ok {
			return fmt.Errorf("%w: %s cannot manage playlists", shared.ErrServiceUnavailable, r.library.Name())
		}
		svc = playlistSvc
	}

	r.logger.Info("building playlists", "input", opts.FeaturesPath, "dry_run", opts.DryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.progressWriter(progressCh)

	result, err := r.engine.CreatePlaylists(ctx, progressCh, svc, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Playlists")
	if result.DryRun {
		r.writePlain("%s\n", ui.Help("Dry run: no playlists were created"))
	}
	for _, name := range tasks.PlaylistNames() {
		uris := result.Assignments[name]
		if len(uris) == 0 {
			continue
		}
		r.writePlain("%s: %s\n", name, ui.Success(fmt.Sprintf("%d tracks", len(uris))))
	}

	return nil
}

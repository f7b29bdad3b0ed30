package main

import (
	"context"

	"github.com/desertthunder/featx/internal/tasks"
	"github.com/desertthunder/featx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Report summarizes pipeline coverage from the stage files on disk.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ReportOpts{
		LikedPath:    cmd.String("liked"),
		MappingPath:  cmd.String("mapping"),
		FeaturesPath: cmd.String("features"),
	}
	if opts.LikedPath == "" {
		opts.LikedPath = r.config.Pipeline.LikedFile
	}
	if opts.MappingPath == "" {
		opts.MappingPath = r.config.Pipeline.MappingFile
	}
	if opts.FeaturesPath == "" {
		opts.FeaturesPath = r.config.Pipeline.FeaturesFile
	}

	cov, err := tasks.BuildCoverage(opts)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cov, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", ui.RenderCoverage(cov))
}

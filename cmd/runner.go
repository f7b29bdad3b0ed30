package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/featx/internal/repositories"
	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
	"github.com/desertthunder/featx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	library  services.LibraryService
	analysis services.AnalysisService
	logger   *log.Logger
	output   io.Writer
	engine   *tasks.PipelineEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Library  services.LibraryService
	Analysis services.AnalysisService
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	engine := tasks.NewPipelineEngine(opts.Library, opts.Analysis, nil)

	return &Runner{
		config:   opts.Config,
		library:  opts.Library,
		analysis: opts.Analysis,
		logger:   opts.Logger,
		output:   opts.Output,
		engine:   engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, likedCommand, resolveCommand, featuresCommand, playlistsCommand, runCommand, reportCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openCache opens the resolve cache backed by the configured sqlite database.
// Returns a nil cache when the database has not been set up yet.
func (r *Runner) openCache() (tasks.ResolveCacher, func(), error) {
	if _, err := os.Stat(r.config.Database.Path); err != nil {
		r.logger.Debug("resolve cache unavailable, run 'featx setup database' to enable it")
		return nil, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open cache database: %w", err)
	}

	repo := repositories.NewResolutionRepository(db)
	cache := repositories.NewResolveCacheAdapter(repo)

	return cache, func() { db.Close() }, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

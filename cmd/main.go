package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/featx/internal/services"
	"github.com/desertthunder/featx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var library services.LibraryService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			svc.SetPageSize(config.Pipeline.PageSize)
			library = svc
		}
	}

	analysis := services.NewReccoBeatsService(
		config.Credentials.ReccoBeats.BaseURL,
		config.Credentials.ReccoBeats.APIKey,
		nil,
	)

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Library:  library,
		Analysis: analysis,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "featx",
		Usage:    "Export Spotify liked songs with audio features",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("authentication failed, run 'featx auth' to (re)authorize")
		}
		logger.Fatalf("application error: %v", err)
	}
}

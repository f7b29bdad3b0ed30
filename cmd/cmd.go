// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// authCommand handles Spotify OAuth2 authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// likedCommand fetches the liked-songs library.
func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "Fetch liked songs and write the raw library file",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: data/raw/liked_songs.json)",
			},
			&cli.BoolFlag{
				Name:  "no-manifest",
				Usage: "Skip writing the run manifest",
			},
		},
		Action: r.Liked,
	}
}

// resolveCommand maps liked tracks to analysis-service identifiers.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve liked tracks to analysis-service identifiers",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Liked songs file (default: data/raw/liked_songs.json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: data/processed/identifier_mapping.json)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Ids per batch lookup (max 40)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second against the analysis API",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the resolve cache",
			},
			&cli.BoolFlag{
				Name:  "no-manifest",
				Usage: "Skip writing the run manifest",
			},
		},
		Action: r.Resolve,
	}
}

// featuresCommand fetches audio features for resolved tracks.
func featuresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Fetch audio features for resolved tracks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Identifier mapping file (default: data/processed/identifier_mapping.json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: data/processed/audio_features.json)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second against the analysis API",
			},
			&cli.BoolFlag{
				Name:  "no-manifest",
				Usage: "Skip writing the run manifest",
			},
		},
		Action: r.Features,
	}
}

// playlistsCommand builds mood playlists from the audio-features file.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "Create mood playlists from audio features",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Audio features file (default: data/processed/audio_features.json)",
			},
			&cli.StringFlag{
				Name:  "liked",
				Usage: "Liked songs file; tracks without features go to the Other playlist",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Classify tracks without creating playlists",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second against the Spotify API",
			},
		},
		Action: r.Playlists,
	}
}

// runCommand executes all three stages in order.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full pipeline: liked, resolve, features",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the resolve cache",
			},
		},
		Action: r.RunAll,
	}
}

// reportCommand summarizes pipeline coverage from the stage files.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Show pipeline coverage from the stage files",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "liked",
				Usage: "Liked songs file path",
			},
			&cli.StringFlag{
				Name:  "mapping",
				Usage: "Identifier mapping file path",
			},
			&cli.StringFlag{
				Name:  "features",
				Usage: "Audio features file path",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Report,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the resolve cache database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

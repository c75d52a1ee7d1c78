// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// updateCommand pushes local playlists to Spotify, appending only new tracks.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Resolve local playlists and append new tracks to Spotify",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Update,
	}
}

// refreshCommand pushes local playlists to Spotify, rebuilding each from scratch.
func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Clear each Spotify playlist and rebuild it from the local m3u",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Refresh,
	}
}

// diffCommand reports membership differences between local and remote playlists.
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "diff",
		Aliases: []string{"differences"},
		Usage:   "Compare local playlists against Spotify by resolved URI",
		Flags: []cli.Flag{
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
		Action: r.Diff,
	}
}

// checkCommand launches the interactive review TUI for unresolved tracks.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Review unresolved tracks interactively and save decisions",
		Action: r.Check,
	}
}

// simplecheckCommand prints resolution state per playlist without the TUI.
func simplecheckCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "simplecheck",
		Usage: "Summarize per-playlist resolution state from the store",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "unresolved",
				Usage: "List every unresolved track",
			},
		},
		Action: r.Simplecheck,
	}
}

// artworkCommand handles embedded album artwork operations.
func artworkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artwork",
		Usage: "Embedded album artwork operations",
		Commands: []*cli.Command{
			{
				Name:  "embed",
				Usage: "Embed Spotify album art into resolved files lacking artwork",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent embed workers (max 10)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run summary as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ArtworkEmbed,
			},
			{
				Name:  "missing",
				Usage: "Report files without embedded artwork, grouped by album",
				Flags: []cli.Flag{
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
				Action: r.ArtworkMissing,
			},
			{
				Name:  "extract",
				Usage: "Write a file's embedded artwork to an image next to it",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.ArtworkExtract,
			},
		},
	}
}

// normalizeCommand rewrites local m3u files with remapped paths.
func normalizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Rewrite local m3u files with remapped paths, dropping missing entries",
		Flags: []cli.Flag{
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
		Action: r.Normalize,
	}
}

// extractCommand dumps playlist metadata from either side of the sync.
func extractCommand(r *Runner) *cli.Command {
	formatFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: json, csv, markdown, or txt",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}

	return &cli.Command{
		Name:  "extract",
		Usage: "Dump playlist metadata",
		Commands: []*cli.Command{
			{
				Name:   "local",
				Usage:  "Dump local m3u playlists with file tags",
				Flags:  formatFlags,
				Action: r.ExtractLocal,
			},
			{
				Name:   "spotify",
				Usage:  "Dump Spotify playlists with full track listings",
				Flags:  formatFlags,
				Action: r.ExtractSpotify,
			},
		},
	}
}

// spotifyCommand handles Spotify account operations.
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SpotifyAuth,
			},
			{
				Name:  "playlists",
				Usage: "List Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

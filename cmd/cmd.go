// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/onehit/internal/formatter"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (table, json, csv, txt)",
		Value:   string(formatter.FormatTable),
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the HTTP service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the hit stream, playlist and stats over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the playlist in a browser once the server is up",
			},
		},
		Action: r.Serve,
	}
}

// discoverCommand finds one-hit wonders for an artist or tag.
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"find"},
		Usage:   "Find one-hit wonders related to an artist or tag",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save hits and push them onto the playlist",
			},
		},
		Action: r.Discover,
	}
}

// candidatesCommand lists the artists a query resolves to.
func candidatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "candidates",
		Usage: "List the artists a query would be checked against",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Candidates,
	}
}

// tuiCommand returns the top-level TUI command for interactive discovery.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for hit discovery",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}

// playlistCommand handles the stored playlist.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Stored playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the playlist, newest first",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag(),
					&cli.BoolFlag{
						Name:  "shuffle",
						Usage: "Shuffle everything but the newest item",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "add",
				Usage: "Push an item onto the playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name, usually \"Artist - Track\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "YouTube video ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "thumbnail",
						Usage: "Thumbnail URL",
					},
				},
				Action: r.PlaylistAdd,
			},
		},
	}
}

// brokenCommand records or lists videos that failed to play.
func brokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "broken",
		Usage: "Report a video that failed to play",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
			&cli.StringArg{
				Name: "name",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List reported videos instead",
			},
		},
		Action: r.Broken,
	}
}

// statsCommand prints entity counts from a running server.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show how many artists, tracks and tags a running server has seen",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "server",
				Usage: "Server base URL (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}

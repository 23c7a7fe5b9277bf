// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "Acting user id",
			Sources: cli.EnvVars("PLST_USER"),
		},
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func attrFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "description",
			Usage: "Playlist description",
		},
		&cli.StringFlag{
			Name:  "visibility",
			Usage: "public or private",
		},
		&cli.BoolFlag{
			Name:  "favorite",
			Usage: "Mark as favorite",
		},
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Tag (repeatable); replaces existing tags",
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a configuration file from the template",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the playlist HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// playlistCommand handles playlist operations.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     append(attrFlags(), jsonFlags()...),
				Action:    r.PlaylistCreate,
			},
			{
				Name:  "list",
				Usage: "List your playlists, or public ones",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "public",
						Usage: "List everyone's public playlists",
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Only playlists with this tag",
					},
				}, jsonFlags()...),
				Action: r.PlaylistList,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist and its songs in order",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.PlaylistShow,
			},
			{
				Name:      "update",
				Usage:     "Change playlist attributes; only given flags change",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "New name",
					},
				}, append(attrFlags(), jsonFlags()...)...),
				Action: r.PlaylistUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "add",
				Usage:     "Append songs at the end",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song id (repeatable, appended in order)",
						Required: true,
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove one occurrence of a song by node id",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "node",
						Aliases:  []string{"n"},
						Usage:    "Node id",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:      "move",
				Usage:     "Move a node to a 0-based position",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "node",
						Aliases:  []string{"n"},
						Usage:    "Node id",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "to",
						Usage:    "New position, counted after removing the node",
						Required: true,
					},
				},
				Action: r.PlaylistMove,
			},
			{
				Name:      "export",
				Usage:     "Export the song order as csv, markdown or text",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default {id}.{ext}); - for stdout",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every playlist you own",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory for --all",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers for --all",
						Value: 5,
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:  "check",
				Usage: "Validate the stored ordering of playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Check every user's playlists",
					},
				},
				Action: r.PlaylistCheck,
			},
		},
	}
}

// songCommand manages the local song catalog.
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Local song catalog",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a song to the local catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Song id (generated when empty)"},
					&cli.StringFlag{Name: "title", Usage: "Title", Required: true},
					&cli.StringFlag{Name: "artist", Usage: "Artist"},
					&cli.StringFlag{Name: "album", Usage: "Album"},
					&cli.StringFlag{Name: "genre", Usage: "Genre"},
					&cli.StringFlag{Name: "url", Usage: "Streaming URL"},
					&cli.IntFlag{Name: "duration", Usage: "Duration in seconds"},
				},
				Action: r.SongAdd,
			},
			{
				Name:   "list",
				Usage:  "List songs in the local catalog",
				Flags:  jsonFlags(),
				Action: r.SongList,
			},
		},
	}
}

// tokenCommand issues development access tokens.
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "Issue an access token for local development",
		Arguments: []cli.Argument{&cli.StringArg{Name: "subject"}},
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: r.Token,
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse and reorder your playlists interactively",
		Action:  r.TUI,
	}
}

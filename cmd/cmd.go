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

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// resolveCommand handles catalog lookups and conversion
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resolve",
		Aliases: []string{"r"},
		Usage:   "Fetch Spotify metadata and convert it to Lavalink tracks",
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Resolve a single track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     resolveFlags(),
				Action:    r.ResolveTrack,
			},
			{
				Name:      "album",
				Usage:     "Resolve the tracks of an album",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     resolveFlags(),
				Action:    r.ResolveAlbum,
			},
			{
				Name:      "playlist",
				Usage:     "Resolve every track of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     resolveFlags(),
				Action:    r.ResolvePlaylist,
			},
		},
	}
}

// nodeCommand handles direct audio node calls
func nodeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "node",
		Usage: "Direct calls to the Lavalink node",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the node and list candidates",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
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
				Action: r.NodeSearch,
			},
			{
				Name:      "get",
				Usage:     "Direct GET to the node, prints the response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.NodeGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.NodePost,
			},
			{
				Name:   "status",
				Usage:  "Check that the node is reachable and the password is accepted",
				Action: r.NodeStatus,
			},
		},
	}
}

// historyCommand handles the recorded match history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded conversions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded conversions, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records to return",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Only records for this catalog track ID",
					},
					&cli.BoolFlag{
						Name:  "hits",
						Usage: "Only conversions that found a candidate",
					},
					&cli.BoolFlag{
						Name:  "misses",
						Usage: "Only conversions without a candidate",
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
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every recorded conversion",
				Action: r.HistoryClear,
			},
		},
	}
}

// serveCommand runs the HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve resolution endpoints, /healthz and /metrics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.BoolFlag{
				Name:  "same-duration",
				Usage: "Default for requests without ?same_duration",
			},
			&cli.BoolFlag{
				Name:  "exclude-variants",
				Usage: "Reject live, remix, cover and similar uploads",
			},
			&cli.BoolFlag{
				Name:  "require-artist",
				Usage: "Require the catalog artist in the candidate author or title",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Candidate ordering: none or duration",
			},
		},
		Action: r.Serve,
	}
}

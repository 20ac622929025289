package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/propmatch/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "propmatch",
		Usage:   "Hybrid property listing search: hard constraints fused with semantic similarity",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: serveCommand,
			},
			{
				Name:      "query",
				Usage:     "Search listings against a running server",
				ArgsUsage: "[query text]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Server base URL",
						Value:   "http://localhost:8080",
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Bearer token for the server",
						EnvVars: []string{"PROPMATCH_API_KEY"},
					},
					&cli.Float64Flag{
						Name:  "max-price",
						Usage: "Maximum monthly price constraint",
					},
					&cli.IntFlag{
						Name:  "min-bedrooms",
						Usage: "Minimum bedroom count constraint",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum final score (server default when unset)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (server default when unset)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

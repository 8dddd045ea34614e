package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"crowdmap/cmd"
	"crowdmap/di"
)

func main() {
	app := &cli.Command{
		Name:  "crowdmap",
		Usage: "Crowd level map backend and search tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Configuration file path",
				Value:   "config.toml",
				Sources: cli.EnvVars("CROWDMAP_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Runtime environment, \"" + di.ENV_PROD + "\" uses the live geocoder",
				Value:   "dev",
				Sources: cli.EnvVars("CROWDMAP_ENV"),
			},
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.ServeCommand(),
			cmd.SeedCommand(),
			cmd.SearchCommand(),
			cmd.TuiCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

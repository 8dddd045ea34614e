package cmd

import (
	"context"
	"log"

	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API and the crowd level refresher",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch-catalog",
				Usage: "Re-import the catalog seed file whenever it changes",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	container, err := loadContainer(ctx, c)
	if err != nil {
		return err
	}
	cfg := container.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	container.CrowdLevelRefresherService.StartPeriodicJob(ctx, cfg.Crowd.RefreshInterval.Duration)

	if c.Bool("watch-catalog") {
		go func() {
			if err := container.CatalogImporterService.Watch(ctx, cfg.Catalog.SeedFile); err != nil {
				log.Printf("[serve] Catalog watch stopped: %v", err)
			}
		}()
	}

	return container.CrowdMapHttpServer.Start(ctx)
}

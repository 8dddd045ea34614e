package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SeedCommand creates the seed command
func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Import the site catalog from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Catalog file (defaults to [catalog] seed_file)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep running and re-import on changes",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			container, err := loadContainer(ctx, c)
			if err != nil {
				return err
			}
			path := c.String("file")
			if path == "" {
				path = container.Config.Catalog.SeedFile
			}

			n, err := container.CatalogImporterService.ImportFromFile(ctx, path)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d sites from %s\n", n, path)

			if c.Bool("watch") {
				return container.CatalogImporterService.Watch(ctx, path)
			}
			return nil
		},
	}
}

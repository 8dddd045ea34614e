package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"crowdmap/config"
	"crowdmap/di"
)

// loadContainer reads the global --config and --env flags and wires the app.
func loadContainer(ctx context.Context, c *cli.Command) (*di.Container, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	container, err := di.NewContainer(ctx, cfg, c.String("env"))
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	// The in-memory store starts empty on every run.
	if cfg.Redis.Address == config.REDIS_MEMORY_ADDRESS {
		if _, err := container.CatalogImporterService.ImportFromFile(ctx, cfg.Catalog.SeedFile); err != nil {
			return nil, fmt.Errorf("seeding in-memory catalog: %w", err)
		}
	}
	return container, nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search sites and places once",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return fmt.Errorf("a query is required")
			}
			container, err := loadContainer(ctx, c)
			if err != nil {
				return err
			}
			results := container.SearchExecutor.Execute(ctx, query)
			fmt.Print(renderResults(query, results))
			return nil
		},
	}
}

package cmd

import (
	"context"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"crowdmap/di"
	"crowdmap/tui"
)

// TuiCommand creates the tui command
func TuiCommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactive search in the terminal",
		Action: func(ctx context.Context, c *cli.Command) error {
			// Logs would draw over the interface.
			log.SetOutput(io.Discard)

			container, err := loadContainer(ctx, c)
			if err != nil {
				return err
			}
			model := tui.NewModel(ctx, container.SearchExecutor, di.SessionConfig(container.Config))
			defer model.Close()

			_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
			return err
		},
	}
}

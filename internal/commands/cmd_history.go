package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/pkg/iojson"
)

// HistoryCmd implements the daycoach history command.
type HistoryCmd struct {
	flags *Flags
	app   *App

	days   int
	module string
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags, app *App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Show recent ledger records",
		UsageText: "daycoach history [--days <n>] [--module <id>]",
		Description: `Prints recent history records as JSON lines, newest first.

Examples:
  daycoach history
  daycoach history --days 30
  daycoach history --module dsa`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "days",
				Aliases:     []string{"n"},
				Usage:       "how many days back to include",
				Value:       7,
				Destination: &cmd.days,
			},
			&cli.StringFlag{
				Name:        "module",
				Aliases:     []string{"m"},
				Usage:       "restrict to one module's records",
				Destination: &cmd.module,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.days < 1 {
		return fmt.Errorf("days must be at least 1")
	}

	since := cmd.app.Today().AddDate(0, 0, -cmd.days)

	var (
		records []history.Record
		err     error
	)
	if cmd.module != "" {
		records, err = cmd.app.History.ListModuleSince(ctx, cmd.module, since)
	} else {
		records, err = cmd.app.History.ListSince(ctx, since)
	}
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	for _, rec := range records {
		if err := iojson.WriteLine(c.Root().Writer, rec); err != nil {
			return err
		}
	}

	return nil
}

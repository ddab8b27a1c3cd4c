package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/history"
)

// FeedbackCmd implements the daycoach feedback command.
type FeedbackCmd struct {
	flags *Flags
	app   *App

	group      string
	module     string
	difficulty int
	notes      string
}

// NewFeedbackCmd creates a new feedback command.
func NewFeedbackCmd(flags *Flags, app *App) *FeedbackCmd {
	return &FeedbackCmd{flags: flags, app: app}
}

// Register adds the feedback command to the application.
func (cmd *FeedbackCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "feedback",
		Usage:     "Record difficulty feedback without completing a task",
		UsageText: "daycoach feedback <name> --group <group> --difficulty <1-5> [options]",
		Description: `Appends a non-completion record carrying a difficulty rating.
Feedback breaks the task's streak and shifts its difficulty average, so
hard tasks resurface sooner.

Examples:
  daycoach feedback "Two Sum" --group leetcode --difficulty 5
  daycoach feedback "Read ch. 4" --group study -d 4 --notes "dense chapter"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "group",
				Aliases:     []string{"g"},
				Usage:       "catalog group the task belongs to",
				Required:    true,
				Destination: &cmd.group,
			},
			&cli.StringFlag{
				Name:        "module",
				Aliases:     []string{"m"},
				Usage:       "module the task belongs to (empty for the base plan)",
				Destination: &cmd.module,
			},
			&cli.IntFlag{
				Name:        "difficulty",
				Aliases:     []string{"d"},
				Usage:       "perceived difficulty 1-5",
				Required:    true,
				Destination: &cmd.difficulty,
			},
			&cli.StringFlag{
				Name:        "notes",
				Usage:       "free-form notes",
				Destination: &cmd.notes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *FeedbackCmd) run(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: daycoach feedback <name> --group <group> --difficulty <1-5>")
	}

	if cmd.difficulty < 1 || cmd.difficulty > 5 {
		return fmt.Errorf("difficulty must be between 1 and 5")
	}

	rec := history.Record{
		Timestamp:  cmd.app.Clock(),
		ModuleID:   cmd.module,
		Name:       c.Args().Get(0),
		Group:      cmd.group,
		Completed:  false,
		Difficulty: &cmd.difficulty,
		Notes:      cmd.notes,
	}

	if err := cmd.app.History.Append(ctx, &rec); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, rec.ID)
	return nil
}

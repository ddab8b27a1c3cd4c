package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
)

// DoneCmd implements the daycoach done command.
type DoneCmd struct {
	flags *Flags
	app   *App

	group      string
	module     string
	taskType   string
	difficulty int
	log        string
	notes      string
}

// NewDoneCmd creates a new done command.
func NewDoneCmd(flags *Flags, app *App) *DoneCmd {
	return &DoneCmd{flags: flags, app: app}
}

// Register adds the done command to the application.
func (cmd *DoneCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "done",
		Usage:     "Record a completed task",
		UsageText: "daycoach done <name> --group <group> [options]",
		Description: `Appends a completion to the history ledger. The record feeds
tomorrow's selection: completions raise the streak and lower the task's
score until the streak breaks.

Examples:
  daycoach done "Two Sum" --group leetcode --difficulty 2
  daycoach done "Read ch. 4" --group study --log "took notes"`,
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
			&cli.StringFlag{
				Name:        "task-type",
				Usage:       "task type (coding, todo)",
				Destination: &cmd.taskType,
			},
			&cli.IntFlag{
				Name:        "difficulty",
				Aliases:     []string{"d"},
				Usage:       "perceived difficulty 1-5",
				Destination: &cmd.difficulty,
			},
			&cli.StringFlag{
				Name:        "log",
				Usage:       "free-form work log",
				Destination: &cmd.log,
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

func (cmd *DoneCmd) run(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: daycoach done <name> --group <group>")
	}

	rec := history.Record{
		Timestamp: cmd.app.Clock(),
		ModuleID:  cmd.module,
		Name:      c.Args().Get(0),
		Group:     cmd.group,
		TaskType:  catalog.TaskType(cmd.taskType),
		Completed: true,
		Log:       cmd.log,
		Notes:     cmd.notes,
	}

	if cmd.difficulty != 0 {
		if cmd.difficulty < 1 || cmd.difficulty > 5 {
			return fmt.Errorf("difficulty must be between 1 and 5")
		}
		rec.Difficulty = &cmd.difficulty
	}

	if err := cmd.app.History.Append(ctx, &rec); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, rec.ID)
	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/planner"
	"github.com/jmorrell/daycoach/pkg/iojson"
)

// RefreshCmd implements the daycoach refresh command.
type RefreshCmd struct {
	flags *Flags
	app   *App

	module string
	all    bool
}

// NewRefreshCmd creates a new refresh command.
func NewRefreshCmd(flags *Flags, app *App) *RefreshCmd {
	return &RefreshCmd{flags: flags, app: app}
}

// Register adds the refresh command to the application.
func (cmd *RefreshCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "refresh",
		Usage:     "Regenerate the plan for today",
		UsageText: "daycoach refresh [--module <id> | --all]",
		Description: `Rebuilds today's plan, replacing any existing batch for the key.
Regeneration is idempotent: running it twice leaves exactly one batch.

Without flags the base plan is rebuilt. --module rebuilds one module's
plan; --all rebuilds the base plan and every module plan.

Examples:
  daycoach refresh
  daycoach refresh --module dsa
  daycoach refresh --all`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "module",
				Aliases:     []string{"m"},
				Usage:       "regenerate one module's plan",
				Destination: &cmd.module,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "regenerate the base plan and every module plan",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})

	return app
}

// refreshView is the printed shape of a regeneration result.
type refreshView struct {
	Key     string `json:"key"`
	BatchID string `json:"batch_id"`
	Tasks   int    `json:"tasks"`
	Source  string `json:"source"`
	Cause   string `json:"cause,omitempty"`
}

func (cmd *RefreshCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.module != "" && cmd.all {
		return fmt.Errorf("--module and --all are mutually exclusive")
	}

	asOf := cmd.app.Today()

	var (
		results []planner.Result
		err     error
	)
	switch {
	case cmd.all:
		results, err = cmd.app.Planner.RegenerateAll(ctx, asOf)
	case cmd.module != "":
		var res planner.Result
		res, err = cmd.app.Planner.RegenerateModule(ctx, asOf, cmd.module)
		results = []planner.Result{res}
	default:
		var res planner.Result
		res, err = cmd.app.Planner.RegenerateDaily(ctx, asOf)
		results = []planner.Result{res}
	}
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	for _, res := range results {
		view := refreshView{
			Key:     res.Key.String(),
			BatchID: res.BatchID,
			Tasks:   len(res.Tasks),
			Source:  string(res.Source),
		}
		if res.Cause != nil {
			view.Cause = res.Cause.Error()
		}
		if err := iojson.WriteLine(c.Root().Writer, view); err != nil {
			return err
		}
	}

	return nil
}

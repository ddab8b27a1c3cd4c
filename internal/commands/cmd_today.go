package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/avatars"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/pkg/iojson"
)

// TodayCmd implements the daycoach today command.
type TodayCmd struct {
	flags *Flags
	app   *App

	module string
}

// NewTodayCmd creates a new today command.
func NewTodayCmd(flags *Flags, app *App) *TodayCmd {
	return &TodayCmd{flags: flags, app: app}
}

// Register adds the today command to the application.
func (cmd *TodayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "today",
		Usage:     "Show today's plan",
		UsageText: "daycoach today [--module <id>]",
		Description: `Prints today's plan as JSON, tasks grouped by group.

Examples:
  daycoach today
  daycoach today --module dsa`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "module",
				Aliases:     []string{"m"},
				Usage:       "show the plan for one module instead of the base plan",
				Destination: &cmd.module,
			},
		},
		Action: cmd.run,
	})

	return app
}

// todayView is the printed shape of a day's plan.
type todayView struct {
	Date    string          `json:"date"`
	Module  string          `json:"module,omitempty"`
	Summary string          `json:"summary,omitempty"`
	Avatar  *avatars.Avatar `json:"avatar,omitempty"`
	Quote   string          `json:"quote,omitempty"`
	Groups  []todayGroup    `json:"groups"`
}

type todayGroup struct {
	Group string      `json:"group"`
	Tasks []plan.Task `json:"tasks"`
}

func (cmd *TodayCmd) run(ctx context.Context, c *cli.Command) error {
	key := plan.NewKey(cmd.app.Today(), cmd.module)

	tasks, err := cmd.app.Plans.ListByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no plan for %s; run 'daycoach refresh' first", key)
	}

	view := todayView{
		Date:   key.Date.Format(history.DateFormat),
		Module: key.ModuleID,
		Groups: groupTasks(tasks),
	}

	summary, err := cmd.app.Plans.GetSummary(ctx, key)
	if err != nil && !errors.Is(err, plan.ErrNotFound) {
		return fmt.Errorf("load summary: %w", err)
	}
	view.Summary = summary.SummaryText

	if avatar, ok := cmd.app.Avatars.PickForDay(avatars.DaySeed(key.Date)); ok {
		view.Avatar = &avatar
		view.Quote = cmd.app.Avatars.Quote(avatar)
	}

	return iojson.WriteWith(c.Root().Writer, view)
}

// groupTasks buckets tasks by group, preserving batch order within each
// group and ordering groups by first appearance.
func groupTasks(tasks []plan.Task) []todayGroup {
	index := make(map[string]int)
	var groups []todayGroup
	for _, task := range tasks {
		i, ok := index[task.Group]
		if !ok {
			i = len(groups)
			index[task.Group] = i
			groups = append(groups, todayGroup{Group: task.Group})
		}
		groups[i].Tasks = append(groups[i].Tasks, task)
	}
	return groups
}

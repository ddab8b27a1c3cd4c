package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/scheduler"
)

// RunCmd implements the daycoach run command.
type RunCmd struct {
	flags *Flags
	app   *App
}

// NewRunCmd creates a new run command.
func NewRunCmd(flags *Flags, app *App) *RunCmd {
	return &RunCmd{flags: flags, app: app}
}

// Register adds the run command to the application.
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the daily planning daemon",
		UsageText: "daycoach run",
		Description: `Runs until interrupted. On startup the base plan is generated if
none exists for today; after that, the full plan set regenerates shortly
after midnight in the configured timezone.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, created, err := cmd.app.Planner.EnsureToday(ctx)
	if err != nil {
		return fmt.Errorf("startup plan check: %w", err)
	}
	if created {
		log.Info().Stringer("key", res.Key).Int("tasks", len(res.Tasks)).Msg("generated startup plan")
	}

	sched := scheduler.New(nil, cmd.app.Location(), func(ctx context.Context, day time.Time) error {
		_, err := cmd.app.Planner.RegenerateAll(ctx, day)
		return err
	})

	log.Info().Str("timezone", cmd.app.Config.Planner.Timezone).Msg("scheduler started")
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

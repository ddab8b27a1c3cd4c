package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/ai"
	"github.com/jmorrell/daycoach/internal/commands"
	"github.com/jmorrell/daycoach/internal/core/avatars"
	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/config"
	"github.com/jmorrell/daycoach/internal/core/logging"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/internal/core/planner"
	"github.com/jmorrell/daycoach/internal/core/selector"
	"github.com/jmorrell/daycoach/internal/data/db"
	"github.com/jmorrell/daycoach/internal/data/stores"
	"github.com/jmorrell/daycoach/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		coachApp  = &commands.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "daycoach",
		Usage:     "Adaptive daily task planning",
		UsageText: "daycoach [global options] command [command options]",
		Description: `Daycoach picks a daily slate of tasks from your catalogs, weighing
what you completed recently, how hard you found it, and how long each
task has gone unseen.

Plans regenerate once per day. Record completions with 'daycoach done'
and difficulty with 'daycoach feedback' to steer tomorrow's selection.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DAYCOACH_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/daycoach.log)",
				Sources:     cli.EnvVars("DAYCOACH_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DAYCOACH_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DAYCOACH_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/daycoach.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "daycoach.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			// Events logged with .Ctx(ctx) carry the planning key fields.
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Open database connection
			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeoutMS,
			}
			database, err = db.Open(cfg.DatabaseDir(), dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Create stores
			historyStore := stores.NewHistoryStore(database)
			planStore := stores.NewPlanStore(database)

			// The generative capability is optional: disabled by config or
			// absent credentials means the fallback scorer runs everything.
			var capability selector.Capability
			if cfg.AI.Enabled {
				aiCfg := ai.DefaultConfig()
				aiCfg.APIKey = cfg.AI.APIKey
				if cfg.AI.Model != "" {
					aiCfg.Model = cfg.AI.Model
				}

				client, err := ai.New(aiCfg)
				if err != nil {
					log.Warn().Err(err).Msg("generative capability unavailable, using fallback selector")
				} else {
					capability = client
				}
			}

			policy := cfg.Policy()
			prompts := catalog.LoadPrompts(cfg.PromptsDir)
			sel := selector.New(capability, plan.NewFallback(nil), policy, prompts, selector.Config{
				Retries:   cfg.AI.Retries, // nil = selector default
				MaxTokens: cfg.AI.MaxTokens,
			})

			roster, err := avatars.Load(cfg.AvatarsFile, nil)
			if err != nil {
				return ctx, fmt.Errorf("load avatars: %w", err)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*coachApp = commands.App{
				Config:  cfg,
				History: historyStore,
				Plans:   planStore,
				Planner: planner.New(func() (catalog.Snapshot, error) {
					return catalog.Load(cfg.CatalogDir)
				}, historyStore, planStore, sel, policy, nil),
				Avatars: roster,
				Clock:   time.Now,
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewRunCmd(flags, coachApp).Register(app)
	app = commands.NewRefreshCmd(flags, coachApp).Register(app)
	app = commands.NewTodayCmd(flags, coachApp).Register(app)
	app = commands.NewDoneCmd(flags, coachApp).Register(app)
	app = commands.NewFeedbackCmd(flags, coachApp).Register(app)
	app = commands.NewHistoryCmd(flags, coachApp).Register(app)
	app = commands.NewCatalogCmd(flags, coachApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/pkg/iojson"
)

// CatalogCmd implements the daycoach catalog command group.
type CatalogCmd struct {
	flags *Flags
	app   *App
}

// NewCatalogCmd creates a new catalog command.
func NewCatalogCmd(flags *Flags, app *App) *CatalogCmd {
	return &CatalogCmd{flags: flags, app: app}
}

// Register adds the catalog command to the application.
func (cmd *CatalogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "catalog",
		Usage: "Catalog management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate the catalog files",
				UsageText:   "daycoach catalog validate",
				Description: "Loads every catalog file and reports the first malformed entry found.",
				Action:      cmd.runValidate,
			},
			{
				Name:        "show",
				Usage:       "Print the loaded catalog",
				UsageText:   "daycoach catalog show",
				Description: "Loads the catalog and prints it as JSON, keyed by module.",
				Action:      cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *CatalogCmd) runValidate(ctx context.Context, c *cli.Command) error {
	snap, err := catalog.Load(cmd.flags.Config.CatalogDir)
	if err != nil {
		return err
	}

	groups := 0
	for _, id := range snap.Modules() {
		groups += len(snap[id])
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "catalog ok: %d module(s), %d group(s)\n", len(snap), groups)
	return nil
}

func (cmd *CatalogCmd) runShow(ctx context.Context, c *cli.Command) error {
	snap, err := catalog.Load(cmd.flags.Config.CatalogDir)
	if err != nil {
		return err
	}
	return iojson.WriteWith(c.Root().Writer, snap)
}

// Package commands implements the daycoach CLI commands.
package commands

import (
	"time"

	"github.com/jmorrell/daycoach/internal/core/avatars"
	"github.com/jmorrell/daycoach/internal/core/config"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/internal/core/planner"
)

// App holds the wired services shared by all commands. It is populated
// in the root command's Before hook, after config and database setup.
type App struct {
	Config  *config.Config
	History history.Store
	Plans   plan.Store
	Planner *planner.Planner
	Avatars *avatars.Roster
	Clock   func() time.Time
}

// Location resolves the configured planning timezone. Falls back to UTC
// if the name stopped resolving after validation.
func (a *App) Location() *time.Location {
	loc, err := time.LoadLocation(a.Config.Planner.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the current instant in the planning timezone.
func (a *App) Today() time.Time {
	return a.Clock().In(a.Location())
}

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts plan_date and module_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if date := GetPlanDate(ctx); date != "" {
		e.Str("plan_date", date)
	}

	if moduleID := GetModuleID(ctx); moduleID != "" {
		e.Str("module_id", moduleID)
	}
}

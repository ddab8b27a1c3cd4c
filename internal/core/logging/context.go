// Package logging provides component loggers and context-scoped log fields.
package logging

import "context"

type contextKey string

const (
	planDateKey contextKey = "plan_date"
	moduleIDKey contextKey = "module_id"
)

// WithPlanDate adds the plan date (YYYY-MM-DD) to the context.
func WithPlanDate(ctx context.Context, date string) context.Context {
	return context.WithValue(ctx, planDateKey, date)
}

// WithModuleID adds a module ID to the context.
func WithModuleID(ctx context.Context, moduleID string) context.Context {
	return context.WithValue(ctx, moduleIDKey, moduleID)
}

// GetPlanDate retrieves the plan date from the context.
// Returns empty string if not present.
func GetPlanDate(ctx context.Context) string {
	if d, ok := ctx.Value(planDateKey).(string); ok {
		return d
	}
	return ""
}

// GetModuleID retrieves the module ID from the context.
// Returns empty string if not present.
func GetModuleID(ctx context.Context) string {
	if id, ok := ctx.Value(moduleIDKey).(string); ok {
		return id
	}
	return ""
}

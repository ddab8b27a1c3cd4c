// Package history defines the append-only completion ledger and the
// aggregation of raw records into per-task statistics.
package history

import (
	"context"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
)

// DateFormat is the canonical day representation used across the ledger.
const DateFormat = "2006-01-02"

// Record is one completion or feedback event. Records are append-only and
// never mutated after creation.
type Record struct {
	ID          string           `json:"id"`
	Date        time.Time        `json:"date"`
	Timestamp   time.Time        `json:"timestamp"`
	ModuleID    string           `json:"module_id,omitempty"`
	Name        string           `json:"name"`
	Group       string           `json:"group"`
	TaskType    catalog.TaskType `json:"task_type,omitempty"`
	Completed   bool             `json:"completed"`
	Difficulty  *int             `json:"difficulty,omitempty"`
	ProblemText string           `json:"problem_text,omitempty"`
	Log         string           `json:"log,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// Store is the ledger's persistence interface. Writes are append-only;
// the planning engine only ever reads.
type Store interface {
	// Append persists a new record. The store populates ID, Date, and
	// Timestamp if not already set.
	Append(ctx context.Context, rec *Record) error

	// ListSince returns records with Date >= since, most recent first.
	ListSince(ctx context.Context, since time.Time) ([]Record, error)

	// ListModuleSince returns records for one module with Date >= since,
	// most recent first.
	ListModuleSince(ctx context.Context, moduleID string, since time.Time) ([]Record, error)
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)) / (24 * time.Hour))
}

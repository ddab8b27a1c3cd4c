// Package plan defines planned task batches, the policy settings that shape
// them, and the deterministic fallback scorer.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
)

// ErrNotFound is returned when no batch or summary exists for a key.
var ErrNotFound = errors.New("plan not found")

// Key scopes one regeneration run and its resulting batch. An empty
// ModuleID denotes the base daily plan.
type Key struct {
	Date     time.Time
	ModuleID string
}

// NewKey builds a Key with the date truncated to its calendar day.
func NewKey(day time.Time, moduleID string) Key {
	return Key{Date: history.DateOf(day), ModuleID: moduleID}
}

func (k Key) String() string {
	if k.ModuleID == "" {
		return k.Date.Format(history.DateFormat)
	}
	return fmt.Sprintf("%s/%s", k.Date.Format(history.DateFormat), k.ModuleID)
}

// Task is the engine's output unit. One planning run for a key produces a
// batch of Tasks that atomically replaces any prior batch for that key.
type Task struct {
	ID                 string           `json:"id"`
	BatchID            string           `json:"batch_id"`
	Date               time.Time        `json:"date"`
	ModuleID           string           `json:"module_id,omitempty"`
	Name               string           `json:"name"`
	Group              string           `json:"group"`
	TaskType           catalog.TaskType `json:"task_type"`
	ProblemText        string           `json:"problem_text,omitempty"`
	CodeTemplate       string           `json:"code_template,omitempty"`
	TodoText           string           `json:"todo_text,omitempty"`
	URL                string           `json:"url,omitempty"`
	Reason             string           `json:"reason,omitempty"`
	DifficultyEstimate *int             `json:"difficulty_estimate,omitempty"`
	Importance         *float64         `json:"importance,omitempty"`
	Metadata           map[string]any   `json:"metadata,omitempty"`
}

// Summary is the explanatory note persisted alongside a batch. At most one
// live summary exists per key.
type Summary struct {
	Date        time.Time `json:"date"`
	ModuleID    string    `json:"module_id,omitempty"`
	BatchID     string    `json:"batch_id"`
	SummaryText string    `json:"summary_text"`
	RawResponse string    `json:"raw_response"`
}

// Store persists task batches keyed by (date, module).
type Store interface {
	// ReplaceBatch atomically deletes any existing tasks and summary for
	// the key and inserts the new batch. All-or-nothing: a failure leaves
	// the prior batch untouched. Tasks without an ID are assigned one,
	// visible to the caller after the call.
	ReplaceBatch(ctx context.Context, key Key, tasks []Task, summary Summary) error

	// ListByKey returns the current batch for a key, insertion order.
	ListByKey(ctx context.Context, key Key) ([]Task, error)

	// ListSince returns tasks from all batches with Date >= since, most
	// recent first. Used as the anti-repetition window for the selector.
	ListSince(ctx context.Context, since time.Time) ([]Task, error)

	// GetSummary returns the live summary for a key.
	// Returns ErrNotFound if none exists.
	GetSummary(ctx context.Context, key Key) (Summary, error)
}

// Policy is the flat configuration consumed by the selection engine.
type Policy struct {
	UseGenerative          bool
	HistoryWindowDays      int
	DailyTimeBudgetMinutes int
	PerGroupQuotas         map[string]int
	AntiRepetitionDays     int
	Timezone               string
	MaxItemsTotal          int
}

// DefaultPolicy returns the policy defaults applied when configuration is absent.
func DefaultPolicy() Policy {
	return Policy{
		UseGenerative:          true,
		HistoryWindowDays:      14,
		DailyTimeBudgetMinutes: 120,
		AntiRepetitionDays:     3,
		Timezone:               "UTC",
		MaxItemsTotal:          10,
	}
}

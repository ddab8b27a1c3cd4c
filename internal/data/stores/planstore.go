package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/internal/data/db"
	"github.com/jmorrell/daycoach/pkg/randid"
)

// PlanStore implements plan.Store using SQLite.
type PlanStore struct {
	db *db.DB
}

var _ plan.Store = (*PlanStore)(nil)

// NewPlanStore creates a new SQLite-backed plan store.
func NewPlanStore(db *db.DB) *PlanStore {
	return &PlanStore{db: db}
}

// ReplaceBatch atomically replaces the batch for a key: delete existing
// tasks and summary, insert the new ones, all in one transaction. A failure
// anywhere rolls the whole replacement back. Tasks without an ID are
// assigned one in place.
func (s *PlanStore) ReplaceBatch(ctx context.Context, key plan.Key, tasks []plan.Task, summary plan.Summary) error {
	date := key.Date.Format(history.DateFormat)
	now := time.Now().UnixNano()

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM planned_tasks WHERE date = ? AND module_id = ?`, date, key.ModuleID); err != nil {
			return fmt.Errorf("delete planned tasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM plan_summaries WHERE date = ? AND module_id = ?`, date, key.ModuleID); err != nil {
			return fmt.Errorf("delete plan summary: %w", err)
		}

		for i := range tasks {
			task := &tasks[i]
			if task.ID == "" {
				// Written back so callers see the persisted identity.
				task.ID = randid.Generate(8)
			}

			var metadata sql.NullString
			if len(task.Metadata) > 0 {
				data, err := json.Marshal(task.Metadata)
				if err != nil {
					return fmt.Errorf("marshal task metadata: %w", err)
				}
				metadata = sql.NullString{String: string(data), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO planned_tasks (id, batch_id, date, module_id, name, task_group, task_type, problem_text,
					code_template, todo_text, url, reason, difficulty_estimate, importance, metadata, position, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				task.ID,
				summary.BatchID,
				date,
				key.ModuleID,
				task.Name,
				task.Group,
				string(task.TaskType),
				task.ProblemText,
				task.CodeTemplate,
				task.TodoText,
				task.URL,
				task.Reason,
				toNullInt(task.DifficultyEstimate),
				toNullFloat(task.Importance),
				metadata,
				i,
				now,
			); err != nil {
				return fmt.Errorf("insert planned task: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_summaries (date, module_id, batch_id, summary_text, raw_response, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			date,
			key.ModuleID,
			summary.BatchID,
			summary.SummaryText,
			summary.RawResponse,
			now,
		); err != nil {
			return fmt.Errorf("insert plan summary: %w", err)
		}

		return nil
	})
}

// ListByKey returns the current batch for a key in insertion order.
func (s *PlanStore) ListByKey(ctx context.Context, key plan.Key) ([]plan.Task, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		selectTasks+` WHERE date = ? AND module_id = ? ORDER BY position`,
		key.Date.Format(history.DateFormat), key.ModuleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list planned tasks: %w", err)
	}
	return scanTasks(rows)
}

// ListSince returns tasks from all batches with date >= since, most recent
// first.
func (s *PlanStore) ListSince(ctx context.Context, since time.Time) ([]plan.Task, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		selectTasks+` WHERE date >= ? ORDER BY date DESC, position`,
		history.DateOf(since).Format(history.DateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("list recent planned tasks: %w", err)
	}
	return scanTasks(rows)
}

// GetSummary returns the live summary for a key.
func (s *PlanStore) GetSummary(ctx context.Context, key plan.Key) (plan.Summary, error) {
	var (
		summary plan.Summary
		date    string
	)
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT date, module_id, batch_id, summary_text, raw_response
		FROM plan_summaries WHERE date = ? AND module_id = ?`,
		key.Date.Format(history.DateFormat), key.ModuleID,
	).Scan(&date, &summary.ModuleID, &summary.BatchID, &summary.SummaryText, &summary.RawResponse)
	if IsNotFoundError(err) {
		return plan.Summary{}, plan.ErrNotFound
	}
	if err != nil {
		return plan.Summary{}, fmt.Errorf("get plan summary: %w", err)
	}

	parsed, err := time.Parse(history.DateFormat, date)
	if err != nil {
		return plan.Summary{}, fmt.Errorf("parse summary date %q: %w", date, err)
	}
	summary.Date = parsed

	return summary, nil
}

const selectTasks = `
	SELECT id, batch_id, date, module_id, name, task_group, task_type, problem_text,
		code_template, todo_text, url, reason, difficulty_estimate, importance, metadata
	FROM planned_tasks`

func scanTasks(rows *sql.Rows) ([]plan.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []plan.Task
	for rows.Next() {
		var (
			task       plan.Task
			date       string
			taskType   string
			difficulty sql.NullInt64
			importance sql.NullFloat64
			metadata   sql.NullString
		)
		if err := rows.Scan(&task.ID, &task.BatchID, &date, &task.ModuleID, &task.Name, &task.Group,
			&taskType, &task.ProblemText, &task.CodeTemplate, &task.TodoText, &task.URL, &task.Reason,
			&difficulty, &importance, &metadata); err != nil {
			return nil, fmt.Errorf("scan planned task: %w", err)
		}

		parsed, err := time.Parse(history.DateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parse task date %q: %w", date, err)
		}
		task.Date = parsed
		task.TaskType = catalog.TaskType(taskType)
		task.DifficultyEstimate = fromNullInt(difficulty)
		task.Importance = fromNullFloat(importance)
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &task.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal task metadata: %w", err)
			}
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate planned tasks: %w", err)
	}

	return tasks, nil
}

package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/data/db"
	"github.com/jmorrell/daycoach/pkg/randid"
)

// HistoryStore implements history.Store using SQLite.
type HistoryStore struct {
	db *db.DB
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a new SQLite-backed history ledger.
func NewHistoryStore(db *db.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append persists a new ledger record.
// Generates ID, Date, and Timestamp if not set. Records are never updated.
func (s *HistoryStore) Append(ctx context.Context, rec *history.Record) error {
	if rec.ID == "" {
		rec.ID = randid.Generate(8)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.Date.IsZero() {
		rec.Date = history.DateOf(rec.Timestamp)
	}
	if rec.TaskType == "" {
		rec.TaskType = catalog.TaskTypeTodo
	}

	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO task_history (id, date, module_id, name, task_group, task_type, completed, difficulty, problem_text, log, notes, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Date.Format(history.DateFormat),
		rec.ModuleID,
		rec.Name,
		rec.Group,
		string(rec.TaskType),
		rec.Completed,
		toNullInt(rec.Difficulty),
		rec.ProblemText,
		rec.Log,
		rec.Notes,
		rec.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append history record: %w", err)
	}

	return nil
}

// ListSince returns records with date >= since, most recent first.
func (s *HistoryStore) ListSince(ctx context.Context, since time.Time) ([]history.Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		selectRecords+` WHERE date >= ? ORDER BY ts DESC`,
		history.DateOf(since).Format(history.DateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return scanRecords(rows)
}

// ListModuleSince returns one module's records with date >= since, most
// recent first.
func (s *HistoryStore) ListModuleSince(ctx context.Context, moduleID string, since time.Time) ([]history.Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		selectRecords+` WHERE module_id = ? AND date >= ? ORDER BY ts DESC`,
		moduleID,
		history.DateOf(since).Format(history.DateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("list module history records: %w", err)
	}
	return scanRecords(rows)
}

const selectRecords = `
	SELECT id, date, module_id, name, task_group, task_type, completed, difficulty, problem_text, log, notes, ts
	FROM task_history`

func scanRecords(rows *sql.Rows) ([]history.Record, error) {
	defer func() { _ = rows.Close() }()

	var records []history.Record
	for rows.Next() {
		var (
			rec        history.Record
			date       string
			taskType   string
			difficulty sql.NullInt64
			ts         int64
		)
		if err := rows.Scan(&rec.ID, &date, &rec.ModuleID, &rec.Name, &rec.Group, &taskType,
			&rec.Completed, &difficulty, &rec.ProblemText, &rec.Log, &rec.Notes, &ts); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}

		parsed, err := time.Parse(history.DateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parse history date %q: %w", date, err)
		}
		rec.Date = parsed
		rec.TaskType = catalog.TaskType(taskType)
		rec.Difficulty = fromNullInt(difficulty)
		rec.Timestamp = time.Unix(0, ts)

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}

	return records, nil
}

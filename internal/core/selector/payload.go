package selector

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/core/plan"
)

// userSettings is the policy fragment the model sees.
type userSettings struct {
	DailyTimeBudgetMinutes    int            `json:"daily_time_budget_minutes"`
	TaskLimits                map[string]int `json:"task_limits,omitempty"`
	AvoidRepetitionDays       int            `json:"avoid_repetition_days"`
	DifficultyScaleDefinition string         `json:"difficulty_scale_definition"`
	Timezone                  string         `json:"timezone"`
	MaxItemsTotal             int            `json:"max_items_total"`
}

const difficultyScale = "1=very easy, 5=very hard"

func settingsFromPolicy(p plan.Policy) userSettings {
	return userSettings{
		DailyTimeBudgetMinutes:    p.DailyTimeBudgetMinutes,
		TaskLimits:                p.PerGroupQuotas,
		AvoidRepetitionDays:       p.AntiRepetitionDays,
		DifficultyScaleDefinition: difficultyScale,
		Timezone:                  p.Timezone,
		MaxItemsTotal:             p.MaxItemsTotal,
	}
}

// historyEntry is a ledger record as serialized into the model payload.
type historyEntry struct {
	Date       string `json:"date"`
	Name       string `json:"name"`
	Group      string `json:"group"`
	Completed  bool   `json:"completed"`
	Difficulty *int   `json:"difficulty,omitempty"`
}

func historyEntries(records []history.Record) []historyEntry {
	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			Date:       rec.Date.Format(history.DateFormat),
			Name:       rec.Name,
			Group:      rec.Group,
			Completed:  rec.Completed,
			Difficulty: rec.Difficulty,
		})
	}
	return entries
}

// taskEntry is a prior planned task as serialized into the model payload.
type taskEntry struct {
	Date  string `json:"date"`
	Name  string `json:"name"`
	Group string `json:"group"`
	URL   string `json:"url,omitempty"`
}

func taskEntries(tasks []plan.Task) []taskEntry {
	entries := make([]taskEntry, 0, len(tasks))
	for _, task := range tasks {
		entries = append(entries, taskEntry{
			Date:  task.Date.Format(history.DateFormat),
			Name:  task.Name,
			Group: task.Group,
			URL:   task.URL,
		})
	}
	return entries
}

func statEntries(stats map[history.Key]history.Stat) []history.Stat {
	entries := make([]history.Stat, 0, len(stats))
	for _, stat := range stats {
		entries = append(entries, stat)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// userPayload builds the base-path request payload.
func userPayload(in Input, policy plan.Policy, windowDays int) (string, error) {
	payload := map[string]any{
		"today_date":              history.DateOf(in.AsOf).Format(history.DateFormat),
		"task_groups":             in.Groups,
		"recent_history":          historyEntries(in.Records),
		"history_stats":           statEntries(history.Aggregate(in.Records, in.AsOf)),
		"recent_today_tasks":      taskEntries(in.RecentTasks),
		"performance_window_days": windowDays,
		"user_settings":           settingsFromPolicy(policy),
	}
	return marshalPayload(payload)
}

// modulePayload builds the module-scoped request payload.
func modulePayload(in ModuleInput, policy plan.Policy, windowDays int) (string, error) {
	payload := map[string]any{
		"today_date":              history.DateOf(in.AsOf).Format(history.DateFormat),
		"module_id":               in.ModuleID,
		"module_title":            ModuleTitle(in.ModuleID),
		"module_config":           in.Groups,
		"history_for_module":      historyEntries(in.Records),
		"history_stats":           statEntries(history.Aggregate(in.Records, in.AsOf)),
		"performance_window_days": windowDays,
		"user_settings":           settingsFromPolicy(policy),
		"task_schema_description": "Use the provided schema exactly. coding tasks must include problem_text and code_template. todo tasks may include todo_text.",
	}
	return marshalPayload(payload)
}

func marshalPayload(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// Input is the context for a base-path generation run.
type Input struct {
	Groups      []catalog.Group
	Records     []history.Record
	RecentTasks []plan.Task
	AsOf        time.Time
}

// ModuleInput is the context for a module-scoped generation run.
type ModuleInput struct {
	ModuleID string
	Groups   []catalog.Group
	Records  []history.Record
	AsOf     time.Time
}

package plan

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
)

// Reasons attached to fallback-selected tasks.
const (
	ReasonFallback = "Fallback selector based on recency/importance"
	ReasonRotation = "Added for rotation"
)

// Per-group selection quotas, matched by keyword against the lowered group name.
const (
	quotaFundamentals = 3
	quotaDefault      = 1
)

// Fallback is the deterministic heuristic selector used whenever the
// generative capability is disabled, unavailable, or exhausts its retries.
type Fallback struct {
	rng *rand.Rand
}

// NewFallback creates a fallback selector. The rng drives only the rotation
// top-up; pass a seeded source for reproducible selection, or nil for a
// time-seeded one.
func NewFallback(rng *rand.Rand) *Fallback {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Fallback{rng: rng}
}

// Select ranks each group's items and picks a bounded quota per group.
//
// Score per item: importance*2 + 1/lastSeenDays - streak + difficultyBias,
// where lastSeenDays counts from the most recent record of any outcome
// (floor 1, default 999 with no history), streak is the consecutive
// completion count, and difficultyBias is (avgDifficulty-3)*0.5 when any
// difficulty was recorded.
//
// Rotation floor: when a group literally named "fundamentals" is processed
// and the running total is still under 2, one extra uniformly random item
// from that group is appended. It may duplicate an already chosen item and
// the trigger depends on group processing order; that behavior is kept
// as shipped.
func (f *Fallback) Select(groups []catalog.Group, records []history.Record, asOf time.Time) []Task {
	stats := history.Aggregate(records, asOf)
	day := history.DateOf(asOf)

	var tasks []Task
	for _, group := range groups {
		if len(group.Items) == 0 {
			continue
		}

		type scored struct {
			score float64
			item  catalog.Item
		}
		ranked := make([]scored, 0, len(group.Items))
		for _, item := range group.Items {
			ranked = append(ranked, scored{score: f.score(group.Name, item, stats, day), item: item})
		}
		// Stable keeps catalog order among equal scores.
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

		quota := quotaFor(group.Name)
		if quota > len(ranked) {
			quota = len(ranked)
		}
		for _, s := range ranked[:quota] {
			tasks = append(tasks, fallbackTask(group.Name, s.item, ReasonFallback))
		}

		if strings.ToLower(group.Name) == "fundamentals" && len(tasks) < 2 {
			extra := group.Items[f.rng.Intn(len(group.Items))]
			tasks = append(tasks, fallbackTask(group.Name, extra, ReasonRotation))
		}
	}

	return tasks
}

func (f *Fallback) score(groupName string, item catalog.Item, stats map[history.Key]history.Stat, day time.Time) float64 {
	lastSeenDays := 999.0
	streak := 0.0
	difficultyBias := 0.0

	if stat, ok := stats[history.Key{Group: groupName, Name: item.Name}]; ok {
		days := history.DaysBetween(stat.LastSeen, day)
		if days < 1 {
			days = 1
		}
		lastSeenDays = float64(days)
		streak = float64(stat.Streak)
		if stat.AvgDifficulty != nil {
			difficultyBias = (*stat.AvgDifficulty - 3) * 0.5
		}
	}

	return item.Importance*2 + 1/lastSeenDays - streak + difficultyBias
}

func quotaFor(groupName string) int {
	key := strings.ToLower(groupName)
	switch {
	case strings.Contains(key, "fundamental"):
		return quotaFundamentals
	case strings.Contains(key, "leetcode"),
		strings.Contains(key, "habit"),
		strings.Contains(key, "study"):
		return 1
	default:
		return quotaDefault
	}
}

func fallbackTask(groupName string, item catalog.Item, reason string) Task {
	taskType := item.TaskType
	if taskType == "" {
		taskType = catalog.TaskTypeTodo
	}
	return Task{
		Name:     item.Name,
		Group:    groupName,
		TaskType: taskType,
		URL:      item.URL,
		Reason:   reason,
	}
}

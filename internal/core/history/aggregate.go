package history

import (
	"sort"
	"time"
)

// Key identifies a task within the ledger.
type Key struct {
	Group string
	Name  string
}

// Stat is the derived per-task statistic consumed by the selectors.
// Stats are recomputed from the ledger on every planning run and never
// persisted.
type Stat struct {
	Group string `json:"group"`
	Name  string `json:"name"`

	// LastSeen is the date of the most recent record of any outcome.
	LastSeen time.Time `json:"last_seen"`

	// DaysSinceCompleted is asOf minus the date of the most recent
	// completed record. Nil if the task was never completed.
	DaysSinceCompleted *int `json:"days_since_completed,omitempty"`

	// Streak counts consecutive completions scanning backward from the
	// most recent record, stopping at the first non-completion.
	Streak int `json:"streak"`

	// AvgDifficulty is the mean of recorded difficulties. Nil if none
	// were recorded.
	AvgDifficulty *float64 `json:"avg_difficulty,omitempty"`

	// CompletedToday reports whether any record for the task is dated
	// asOf and completed.
	CompletedToday bool `json:"completed_today"`

	// Samples is the total record count for the task.
	Samples int `json:"samples"`
}

// Aggregate groups records by (group, name) and derives a Stat per key as of
// the given day. Pure: no side effects, and caller ordering does not matter —
// records are sorted by timestamp descending internally before the streak
// scan.
func Aggregate(records []Record, asOf time.Time) map[Key]Stat {
	day := DateOf(asOf)

	byKey := make(map[Key][]Record)
	for _, rec := range records {
		k := Key{Group: rec.Group, Name: rec.Name}
		byKey[k] = append(byKey[k], rec)
	}

	stats := make(map[Key]Stat, len(byKey))
	for k, recs := range byKey {
		sort.Slice(recs, func(i, j int) bool {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		})

		stat := Stat{
			Group:    k.Group,
			Name:     k.Name,
			LastSeen: DateOf(recs[0].Date),
			Samples:  len(recs),
		}

		for _, rec := range recs {
			if !rec.Completed {
				break
			}
			stat.Streak++
		}

		var diffSum, diffCount float64
		for _, rec := range recs {
			if rec.Completed && stat.DaysSinceCompleted == nil {
				days := DaysBetween(rec.Date, day)
				stat.DaysSinceCompleted = &days
			}
			if rec.Difficulty != nil {
				diffSum += float64(*rec.Difficulty)
				diffCount++
			}
			if rec.Completed && DateOf(rec.Date).Equal(day) {
				stat.CompletedToday = true
			}
		}
		if diffCount > 0 {
			avg := diffSum / diffCount
			stat.AvgDifficulty = &avg
		}

		stats[k] = stat
	}

	return stats
}

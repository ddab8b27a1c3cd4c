package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func intp(v int) *int { return &v }

func TestAggregate_StreakAndDifficulty(t *testing.T) {
	asOf := day("2026-08-29")

	// Most recent first: completed(diff 3), not completed, completed(diff 4).
	records := []Record{
		{Group: "Fundamentals", Name: "Binary Search", Date: day("2026-08-28"), Timestamp: day("2026-08-28").Add(9 * time.Hour), Completed: true, Difficulty: intp(3)},
		{Group: "Fundamentals", Name: "Binary Search", Date: day("2026-08-27"), Timestamp: day("2026-08-27").Add(9 * time.Hour), Completed: false},
		{Group: "Fundamentals", Name: "Binary Search", Date: day("2026-08-25"), Timestamp: day("2026-08-25").Add(9 * time.Hour), Completed: true, Difficulty: intp(4)},
	}

	stats := Aggregate(records, asOf)
	stat, ok := stats[Key{Group: "Fundamentals", Name: "Binary Search"}]
	require.True(t, ok)

	assert.Equal(t, 1, stat.Streak)
	require.NotNil(t, stat.AvgDifficulty)
	assert.InDelta(t, 3.5, *stat.AvgDifficulty, 1e-9)
	assert.Equal(t, day("2026-08-28"), stat.LastSeen)
	require.NotNil(t, stat.DaysSinceCompleted)
	assert.Equal(t, 1, *stat.DaysSinceCompleted)
	assert.False(t, stat.CompletedToday)
	assert.Equal(t, 3, stat.Samples)
}

func TestAggregate_CallerOrderIrrelevant(t *testing.T) {
	asOf := day("2026-08-29")

	// Same records as above, shuffled: the aggregator must sort internally.
	records := []Record{
		{Group: "g", Name: "n", Date: day("2026-08-25"), Timestamp: day("2026-08-25"), Completed: true},
		{Group: "g", Name: "n", Date: day("2026-08-28"), Timestamp: day("2026-08-28"), Completed: true},
		{Group: "g", Name: "n", Date: day("2026-08-27"), Timestamp: day("2026-08-27"), Completed: false},
	}

	stat := Aggregate(records, asOf)[Key{Group: "g", Name: "n"}]
	assert.Equal(t, 1, stat.Streak)
}

func TestAggregate_NeverCompleted(t *testing.T) {
	asOf := day("2026-08-29")
	records := []Record{
		{Group: "g", Name: "n", Date: day("2026-08-28"), Timestamp: day("2026-08-28"), Completed: false},
	}

	stat := Aggregate(records, asOf)[Key{Group: "g", Name: "n"}]
	assert.Equal(t, 0, stat.Streak)
	assert.Nil(t, stat.DaysSinceCompleted)
	assert.Nil(t, stat.AvgDifficulty)
}

func TestAggregate_CompletedToday(t *testing.T) {
	asOf := day("2026-08-29")
	records := []Record{
		{Group: "g", Name: "n", Date: day("2026-08-29"), Timestamp: day("2026-08-29").Add(7 * time.Hour), Completed: true},
	}

	stat := Aggregate(records, asOf)[Key{Group: "g", Name: "n"}]
	assert.True(t, stat.CompletedToday)
	require.NotNil(t, stat.DaysSinceCompleted)
	assert.Equal(t, 0, *stat.DaysSinceCompleted)
}

func TestAggregate_SeparateKeys(t *testing.T) {
	asOf := day("2026-08-29")
	records := []Record{
		{Group: "a", Name: "x", Date: day("2026-08-28"), Timestamp: day("2026-08-28"), Completed: true},
		{Group: "b", Name: "x", Date: day("2026-08-28"), Timestamp: day("2026-08-28"), Completed: false},
	}

	stats := Aggregate(records, asOf)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[Key{Group: "a", Name: "x"}].Streak)
	assert.Equal(t, 0, stats[Key{Group: "b", Name: "x"}].Streak)
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, day("2026-08-29"))
	assert.Empty(t, stats)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 4, DaysBetween(day("2026-08-25"), day("2026-08-29")))
	assert.Equal(t, 0, DaysBetween(day("2026-08-29"), day("2026-08-29").Add(23*time.Hour)))
}

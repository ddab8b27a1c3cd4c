package stores_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/internal/data/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch(key plan.Key, names ...string) ([]plan.Task, plan.Summary) {
	batchID := uuid.NewString()

	tasks := make([]plan.Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, plan.Task{
			BatchID:  batchID,
			Date:     key.Date,
			ModuleID: key.ModuleID,
			Name:     name,
			Group:    "arrays",
			TaskType: catalog.TaskTypeCoding,
			Reason:   "practice",
		})
	}

	summary := plan.Summary{
		Date:        key.Date,
		ModuleID:    key.ModuleID,
		BatchID:     batchID,
		SummaryText: "a balanced day",
		RawResponse: `{"tasks":[]}`,
	}

	return tasks, summary
}

func TestPlanStore_ReplaceBatchAndList(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	key := plan.NewKey(time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC), "")
	tasks, summary := testBatch(key, "Two Sum", "Merge Intervals")

	require.NoError(t, store.ReplaceBatch(ctx, key, tasks, summary))

	// generated ids are written back to the caller's slice
	require.NotEmpty(t, tasks[0].ID)
	require.NotEmpty(t, tasks[1].ID)

	got, err := store.ListByKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Two Sum", got[0].Name)
	assert.Equal(t, "Merge Intervals", got[1].Name)
	assert.Equal(t, tasks[0].ID, got[0].ID)
	assert.Equal(t, tasks[1].ID, got[1].ID)
	assert.Equal(t, summary.BatchID, got[0].BatchID)

	gotSummary, err := store.GetSummary(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a balanced day", gotSummary.SummaryText)
	assert.Equal(t, summary.BatchID, gotSummary.BatchID)
	assert.True(t, gotSummary.Date.Equal(key.Date))
}

func TestPlanStore_ReplaceBatchIsIdempotentPerKey(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	key := plan.NewKey(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), "dsa")

	first, firstSummary := testBatch(key, "Old A", "Old B", "Old C")
	require.NoError(t, store.ReplaceBatch(ctx, key, first, firstSummary))

	second, secondSummary := testBatch(key, "New A")
	require.NoError(t, store.ReplaceBatch(ctx, key, second, secondSummary))

	got, err := store.ListByKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New A", got[0].Name)
	assert.Equal(t, secondSummary.BatchID, got[0].BatchID)

	gotSummary, err := store.GetSummary(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, secondSummary.BatchID, gotSummary.BatchID)
}

func TestPlanStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	baseKey := plan.NewKey(day, "")
	moduleKey := plan.NewKey(day, "dsa")

	baseTasks, baseSummary := testBatch(baseKey, "Base Task")
	require.NoError(t, store.ReplaceBatch(ctx, baseKey, baseTasks, baseSummary))

	moduleTasks, moduleSummary := testBatch(moduleKey, "Module Task")
	require.NoError(t, store.ReplaceBatch(ctx, moduleKey, moduleTasks, moduleSummary))

	got, err := store.ListByKey(ctx, baseKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Base Task", got[0].Name)

	got, err = store.ListByKey(ctx, moduleKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Module Task", got[0].Name)
}

func TestPlanStore_ListSince(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	for _, offset := range []int{0, -1, -10} {
		key := plan.NewKey(day.AddDate(0, 0, offset), "")
		tasks, summary := testBatch(key, key.Date.Format("2006-01-02"))
		require.NoError(t, store.ReplaceBatch(ctx, key, tasks, summary))
	}

	got, err := store.ListSince(ctx, day.AddDate(0, 0, -3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-08-29", got[0].Name)
	assert.Equal(t, "2026-08-28", got[1].Name)
}

func TestPlanStore_MetadataRoundTrip(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	key := plan.NewKey(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), "")
	tasks, summary := testBatch(key, "Annotated")
	tasks[0].Metadata = map[string]any{"source": "model", "tokens": float64(120)}
	tasks[0].DifficultyEstimate = intptr(3)

	require.NoError(t, store.ReplaceBatch(ctx, key, tasks, summary))

	got, err := store.ListByKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "model", got[0].Metadata["source"])
	require.NotNil(t, got[0].DifficultyEstimate)
	assert.Equal(t, 3, *got[0].DifficultyEstimate)
}

func TestPlanStore_ReplaceBatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))
	ctx := t.Context()

	key := plan.NewKey(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), "")

	original, originalSummary := testBatch(key, "Keep A", "Keep B")
	require.NoError(t, store.ReplaceBatch(ctx, key, original, originalSummary))

	// two tasks sharing an id violate the primary key on the second insert
	bad, badSummary := testBatch(key, "New A", "New B")
	bad[0].ID = "dup"
	bad[1].ID = "dup"
	require.Error(t, store.ReplaceBatch(ctx, key, bad, badSummary))

	got, err := store.ListByKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Keep A", got[0].Name)
	assert.Equal(t, "Keep B", got[1].Name)
	assert.Equal(t, originalSummary.BatchID, got[0].BatchID)

	summary, err := store.GetSummary(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, originalSummary.BatchID, summary.BatchID)
	assert.Equal(t, originalSummary.SummaryText, summary.SummaryText)
}

func TestPlanStore_GetSummaryNotFound(t *testing.T) {
	t.Parallel()

	store := stores.NewPlanStore(newTestDB(t))

	_, err := store.GetSummary(t.Context(), plan.NewKey(time.Now(), "missing"))
	require.ErrorIs(t, err, plan.ErrNotFound)
}

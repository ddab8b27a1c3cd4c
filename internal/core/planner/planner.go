// Package planner orchestrates plan regeneration: it assembles the
// selection context for a (date, module) key, runs the selector, and
// atomically replaces the stored batch. Runs for the same key are
// serialized; distinct keys proceed concurrently.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/history"
	"github.com/jmorrell/daycoach/internal/core/logging"
	"github.com/jmorrell/daycoach/internal/core/plan"
	"github.com/jmorrell/daycoach/internal/core/selector"
)

// ErrUnknownModule is returned when a module-scoped run names a module
// the catalog does not contain.
var ErrUnknownModule = errors.New("unknown module")

// CatalogFunc supplies the catalog snapshot for a run. Loading per run
// means edits to the catalog files take effect on the next regeneration.
type CatalogFunc func() (catalog.Snapshot, error)

// Result is the output of one regeneration run.
type Result struct {
	Key     plan.Key
	BatchID string
	Tasks   []plan.Task
	Summary plan.Summary
	Source  selector.Source
	// Cause is the failure that forced the fallback path, if any.
	Cause error
}

// Planner drives regeneration runs against the stores.
type Planner struct {
	catalog CatalogFunc
	history history.Store
	plans   plan.Store
	sel     *selector.Selector
	policy  plan.Policy
	now     func() time.Time
	keys    *keyedMutex
	log     zerolog.Logger
}

// New creates a Planner. now may be nil, in which case time.Now is used.
func New(catalogFn CatalogFunc, historyStore history.Store, planStore plan.Store, sel *selector.Selector, policy plan.Policy, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{
		catalog: catalogFn,
		history: historyStore,
		plans:   planStore,
		sel:     sel,
		policy:  policy,
		now:     now,
		keys:    newKeyedMutex(),
		log:     logging.Component("planner"),
	}
}

// RegenerateDaily rebuilds the base plan for asOf's calendar day. The
// selector never fails on this path; any generative failure is recorded
// on the result as a fallback cause. Catalog and store errors abort the
// run before the stored batch is touched.
func (p *Planner) RegenerateDaily(ctx context.Context, asOf time.Time) (Result, error) {
	key := plan.NewKey(asOf, "")
	ctx = logging.WithPlanDate(ctx, key.Date.Format(history.DateFormat))

	unlock := p.keys.Lock(key.String())
	defer unlock()

	snap, records, recent, err := p.loadContext(ctx, asOf, "")
	if err != nil {
		return Result{}, err
	}

	out := p.sel.Generate(ctx, selector.Input{
		Groups:      snap.AllGroups(),
		Records:     records,
		RecentTasks: recent,
		AsOf:        asOf,
	})

	return p.commit(ctx, key, out)
}

// RegenerateModule rebuilds the plan for one module's key. A generative
// failure substitutes the fallback scorer explicitly, with the failure
// recorded on the result. A module absent from the catalog is an error.
func (p *Planner) RegenerateModule(ctx context.Context, asOf time.Time, moduleID string) (Result, error) {
	key := plan.NewKey(asOf, moduleID)
	ctx = logging.WithPlanDate(ctx, key.Date.Format(history.DateFormat))
	ctx = logging.WithModuleID(ctx, moduleID)

	unlock := p.keys.Lock(key.String())
	defer unlock()

	snap, records, _, err := p.loadContext(ctx, asOf, moduleID)
	if err != nil {
		return Result{}, err
	}

	groups, ok := snap[moduleID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}

	in := selector.ModuleInput{
		ModuleID: moduleID,
		Groups:   groups,
		Records:  records,
		AsOf:     asOf,
	}

	out, err := p.sel.GenerateForModule(ctx, in)
	if err != nil {
		p.log.Warn().Ctx(ctx).Err(err).Msg("module generation failed, substituting fallback")
		out = p.sel.FallbackOutcome(in, err)
	}

	return p.commit(ctx, key, out)
}

// RegenerateAll rebuilds the base plan and every module plan for asOf's
// day. Module keys run concurrently; the first store failure cancels the
// rest. Results are returned in no particular order.
func (p *Planner) RegenerateAll(ctx context.Context, asOf time.Time) ([]Result, error) {
	base, err := p.RegenerateDaily(ctx, asOf)
	if err != nil {
		return nil, err
	}

	snap, err := p.catalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	results := []Result{base}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, moduleID := range snap.Modules() {
		g.Go(func() error {
			res, err := p.RegenerateModule(gctx, asOf, moduleID)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// EnsureToday regenerates the base plan only if none exists for today's
// key. Used at startup so a restart never clobbers a plan already built
// for the day.
func (p *Planner) EnsureToday(ctx context.Context) (Result, bool, error) {
	asOf := p.now()
	key := plan.NewKey(asOf, "")

	_, err := p.plans.GetSummary(ctx, key)
	switch {
	case err == nil:
		p.log.Debug().Ctx(ctx).Stringer("key", key).Msg("plan already exists")
		return Result{}, false, nil
	case errors.Is(err, plan.ErrNotFound):
		res, err := p.RegenerateDaily(ctx, asOf)
		if err != nil {
			return Result{}, false, err
		}
		return res, true, nil
	default:
		return Result{}, false, fmt.Errorf("check existing plan: %w", err)
	}
}

// loadContext loads the catalog, the history window, and (for the base
// path) the recent planned tasks used for anti-repetition.
func (p *Planner) loadContext(ctx context.Context, asOf time.Time, moduleID string) (catalog.Snapshot, []history.Record, []plan.Task, error) {
	snap, err := p.catalog()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	since := history.DateOf(asOf).AddDate(0, 0, -p.policy.HistoryWindowDays)

	var records []history.Record
	if moduleID == "" {
		records, err = p.history.ListSince(ctx, since)
	} else {
		records, err = p.history.ListModuleSince(ctx, moduleID, since)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load history: %w", err)
	}

	var recent []plan.Task
	if moduleID == "" {
		recentSince := history.DateOf(asOf).AddDate(0, 0, -p.policy.AntiRepetitionDays)
		recent, err = p.plans.ListSince(ctx, recentSince)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load recent plans: %w", err)
		}
	}

	return snap, records, recent, nil
}

// commit stamps the outcome's tasks with identity fields and atomically
// replaces the stored batch for the key.
func (p *Planner) commit(ctx context.Context, key plan.Key, out selector.Outcome) (Result, error) {
	batchID := uuid.NewString()

	tasks := make([]plan.Task, len(out.Tasks))
	for i, task := range out.Tasks {
		task.BatchID = batchID
		task.Date = key.Date
		task.ModuleID = key.ModuleID
		tasks[i] = task
	}

	summary := plan.Summary{
		Date:        key.Date,
		ModuleID:    key.ModuleID,
		BatchID:     batchID,
		SummaryText: out.SummaryText,
		RawResponse: out.Raw,
	}

	if err := p.plans.ReplaceBatch(ctx, key, tasks, summary); err != nil {
		return Result{}, fmt.Errorf("replace batch %s: %w", key, err)
	}

	p.log.Info().Ctx(ctx).
		Stringer("key", key).
		Str("batch_id", batchID).
		Str("source", string(out.Source)).
		Int("tasks", len(tasks)).
		Msg("plan regenerated")

	return Result{
		Key:     key,
		BatchID: batchID,
		Tasks:   tasks,
		Summary: summary,
		Source:  out.Source,
		Cause:   out.Cause,
	}, nil
}

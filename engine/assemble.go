/*
assemble.go - Assembly orchestrator

PURPOSE:
  Sequences one full assembly run:

    profile + history + recent-box reads   (concurrent, joined)
      -> quantity resolution (staple targets)
      -> catalog filter + scoring + grouping
      -> diversity allocation per staple category
      -> even distribution across leftover categories (one retry)
      -> completion fallback from the ranked pool
      -> box document build + single persist

CONCURRENCY:
  The three store reads at the top are mutually independent and are the
  run's only parallelism; everything after the join is strictly
  sequential and in-memory.

ERROR BEHAVIOR:
  - Missing profile and invalid configuration abort the run.
  - Catalog/history read failures degrade to empty results (logged).
  - Shortages are logged warnings; the box saves under-filled.
  - Save failures propagate.

SEE ALSO:
  - quantity.go, allocate.go, distribute.go: The stages
  - store.go: Collaborator interfaces
*/
package engine

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultPageLimit bounds one catalog page when the caller does not
// configure a tighter one.
const DefaultPageLimit = 200

// Assembler runs box assemblies against a set of stores.
type Assembler struct {
	Stores    Stores
	Clock     Clock
	Log       *logrus.Logger
	PageLimit int
}

// NewAssembler wires an Assembler with defaults.
func NewAssembler(stores Stores, log *logrus.Logger) *Assembler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{
		Stores:    stores,
		Clock:     SystemClock{},
		Log:       log,
		PageLimit: DefaultPageLimit,
	}
}

// AssembleRequest is the input to one run.
type AssembleRequest struct {
	SubscriberID SubscriberID
	OffCycle     bool

	// Reset boxes override the profile's capacity tier.
	ResetBox      bool
	ResetCapacity int
}

// AssembleResult is the outcome of one run.
type AssembleResult struct {
	Box   Box
	Saved bool
	// Shortfall is the number of slots left unfilled after the
	// completion fallback (0 when the box reached capacity).
	Shortfall int
}

// Assemble runs the full pipeline for one subscriber and persists the
// resulting box exactly once (empty boxes are returned but not saved).
func (a *Assembler) Assemble(ctx context.Context, req AssembleRequest) (AssembleResult, error) {
	if req.ResetBox && req.ResetCapacity <= 0 {
		return AssembleResult{}, &ConfigError{Field: "reset_capacity", Reason: "must be positive for a reset box"}
	}

	profile, historyAll, recent, err := a.loadInputs(ctx, req.SubscriberID)
	if err != nil {
		return AssembleResult{}, err
	}

	capacity := profile.Capacity
	if req.ResetBox {
		capacity = req.ResetCapacity
	}
	if capacity <= 0 {
		return AssembleResult{}, &ConfigError{Field: "capacity", Reason: "must be positive"}
	}

	adjusted := capacity - profile.PinnedCount()
	targets, skip, err := ResolveQuantities(profile.Staples, capacity, adjusted, len(profile.DislikedCategories))
	if err != nil {
		return AssembleResult{}, err
	}

	run := &AssemblyContext{
		Profile:       profile,
		Capacity:      capacity,
		OffCycle:      req.OffCycle,
		HistoryAllIDs: historyAll,
		RecentBoxIDs:  recent,
		Targets:       targets,
		Items:         pinnedLineItems(profile),
	}

	if skip {
		// Pinned items alone exceed capacity: the box is pinned-only and
		// no filtering, scoring, or allocation runs.
		a.Log.WithFields(logrus.Fields{
			"subscriber": profile.ID,
			"pinned":     profile.PinnedCount(),
			"capacity":   capacity,
		}).Warn("pinned items exceed capacity, skipping allocation")
		return a.finish(ctx, run)
	}

	a.loadCatalog(ctx, run)
	a.allocateStaples(run)
	a.distribute(run)

	result, err := a.finish(ctx, run)
	if err != nil {
		return result, err
	}
	if result.Shortfall > 0 {
		a.Log.WithFields(logrus.Fields{
			"subscriber": profile.ID,
			"shortfall":  result.Shortfall,
			"capacity":   capacity,
		}).Warn("catalog pool exhausted, box saved under-filled")
	}
	return result, nil
}

// loadInputs issues the profile, full-history, and most-recent-box
// reads concurrently and joins before returning. History reads are
// fail-soft; a missing profile is fatal.
func (a *Assembler) loadInputs(ctx context.Context, id SubscriberID) (SubscriberProfile, map[ItemID]bool, map[ItemID]bool, error) {
	var (
		profile    SubscriberProfile
		historyAll map[ItemID]bool
		recent     map[ItemID]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = a.Stores.Profiles.GetProfile(gctx, id)
		return err
	})
	g.Go(func() error {
		ids, err := a.Stores.History.AllDeliveredIDs(gctx, id)
		if err != nil {
			a.Log.WithError(err).WithField("subscriber", id).Warn("history read failed, treating as empty")
			ids = map[ItemID]bool{}
		}
		historyAll = ids
		return nil
	})
	g.Go(func() error {
		ids, err := a.Stores.History.MostRecentBoxIDs(gctx, id)
		if err != nil {
			a.Log.WithError(err).WithField("subscriber", id).Warn("recent box read failed, treating as empty")
			ids = map[ItemID]bool{}
		}
		recent = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return SubscriberProfile{}, nil, nil, err
	}
	return profile, historyAll, recent, nil
}

// loadCatalog fetches, ranks, and groups the eligible pool. A store
// failure degrades to an empty pool.
func (a *Assembler) loadCatalog(ctx context.Context, run *AssemblyContext) {
	criteria := BuildFilterCriteria(run.Profile, run.RecentBoxIDs, run.OffCycle)

	limit := a.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	pool, err := a.Stores.Catalog.FindEligible(ctx, criteria, limit)
	if err != nil {
		a.Log.WithError(err).WithField("subscriber", run.Profile.ID).Warn("catalog read failed, treating as empty")
		pool = nil
	}

	run.Pool = RankPool(pool, run.Profile.Priority, run.HistoryAllIDs)
	run.Grouped = GroupByPrimaryCategory(run.Pool)
}

// allocateStaples runs the diversity allocator for each resolved staple
// target, in profile order. Desired counts are capped at the open
// capacity so the box never overflows even when targets could not
// shrink below one-per-staple.
func (a *Assembler) allocateStaples(run *AssemblyContext) {
	state := AllocationState{HistoryAllIDs: run.HistoryAllIDs, Priority: run.Profile.Priority}

	for _, target := range run.Targets {
		open := run.Capacity - run.CurrentCount()
		if open <= 0 {
			return
		}

		pool := run.Grouped.Items(target.Category)
		if len(pool) == 0 {
			a.Log.WithFields(logrus.Fields{
				"subscriber": run.Profile.ID,
				"category":   target.Category,
			}).Warn("no eligible items for staple category")
			continue
		}

		picked, remaining := Allocate(target.Category, minInt(target.Count, open), pool, state)
		if len(picked) < minInt(target.Count, open) {
			a.Log.WithFields(logrus.Fields{
				"subscriber": run.Profile.ID,
				"category":   target.Category,
				"wanted":     target.Count,
				"picked":     len(picked),
			}).Warn("staple category under-filled")
		}
		run.Items = append(run.Items, picked...)
		run.Grouped.SetItems(target.Category, remaining)
	}
}

// distribute spreads the remaining budget across leftover categories,
// with exactly one retry pass against the same category set, then runs
// the completion fallback.
func (a *Assembler) distribute(run *AssemblyContext) {
	state := AllocationState{HistoryAllIDs: run.HistoryAllIDs, Priority: run.Profile.Priority}
	leftovers := LeftoverCategories(run.Grouped, run.Targets, run.Profile.DislikedCategories)

	DistributeLeftovers(run, leftovers, run.Capacity-run.CurrentCount(), state)
	if run.CurrentCount() < run.Capacity {
		DistributeLeftovers(run, leftovers, run.Capacity-run.CurrentCount(), state)
	}
}

// finish builds the box document, persists it when non-empty, and
// reports any shortfall.
func (a *Assembler) finish(ctx context.Context, run *AssemblyContext) (AssembleResult, error) {
	shortfall := 0
	if run.Grouped != nil {
		shortfall = CompleteFromRankedPool(run)
	} else if open := run.Capacity - run.CurrentCount(); open > 0 {
		shortfall = open
	}

	box := BuildBoxDocument(run.Profile.ID, run.Capacity, run.Items, run.OffCycle, a.Clock.Now())

	if len(box.Items) == 0 {
		a.Log.WithField("subscriber", run.Profile.ID).Warn("assembled box is empty, nothing to save")
		return AssembleResult{Box: box, Saved: false, Shortfall: shortfall}, nil
	}

	if err := a.Stores.Boxes.Save(ctx, box); err != nil {
		return AssembleResult{}, err
	}
	return AssembleResult{Box: box, Saved: true, Shortfall: shortfall}, nil
}

func pinnedLineItems(profile SubscriberProfile) []BoxLineItem {
	var items []BoxLineItem
	for _, pi := range profile.PinnedItems {
		items = append(items, BoxLineItem{
			ID:              pi.ID,
			PrimaryCategory: pi.Category,
			ProductLine:     pi.ProductLine,
			Count:           pi.Count,
			Premium:         pi.Premium,
		})
	}
	return items
}

/*
Package engine provides the box assembly engine.

PURPOSE:
  This package contains the types and algorithms that turn a subscriber
  profile plus a shared item catalog into one personalized, bounded-size
  box: exclusion filtering, preference scoring, staple quantity
  resolution, diversity-constrained allocation, and completion.

KEY CONCEPTS IN THIS FILE (types.go):
  - CatalogItem: One item in the shared catalog (immutable per run)
  - SubscriberProfile: Per-subscriber constraints and targets (read-only)
  - BoxLineItem: One entry in the assembled box (the engine's output)
  - Box: The persisted box document
  - AssemblyContext: Single-run mutable accumulator

DESIGN PRINCIPLES:
  1. Determinism: Every enumeration the engine performs uses ordered
     containers (slices, first-seen order), never bare map iteration.
  2. Precision: Scores and boosts use decimal.Decimal.
  3. Type Safety: Strong typing for item and subscriber identifiers.
  4. Explicit state: One AssemblyContext per run, discarded afterwards.
     No process-wide state survives a run.

SEE ALSO:
  - assemble.go: The orchestrator that threads these types together
  - store.go: Persistence interfaces consuming/producing these types
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string
type SubscriberID string

// =============================================================================
// CATALOG ITEM
// =============================================================================

// CatalogItem is one item in the shared catalog. Immutable for the
// duration of one assembly run; the run works on its own copy of the
// eligible pool and removes items from that copy as they are picked.
type CatalogItem struct {
	ID                ItemID
	PrimaryCategory   string
	SecondaryCategory string
	Brand             string
	Form              string
	ProductLine       string
	FlavorTags        []string
	Allergens         []string

	TotalScore       decimal.Decimal
	ProteinBoost     decimal.Decimal
	LowCarbBoost     decimal.Decimal
	LowCalorieBoost  decimal.Decimal
	ItemOfMonthBoost decimal.Decimal

	// Nutrition attributes, used only by the priority condition.
	// Absent values are zero.
	Protein  decimal.Decimal
	Carbs    decimal.Decimal
	Calories decimal.Decimal

	Premium         bool
	InStock         bool
	Approved        bool
	ReplacementOnly bool
}

// HasFlavorTag reports whether the item carries the given surface-form tag.
func (ci CatalogItem) HasFlavorTag(tag string) bool {
	for _, t := range ci.FlavorTags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyAllergen reports whether the item carries any allergen in the set.
func (ci CatalogItem) HasAnyAllergen(allergens map[string]bool) bool {
	for _, a := range ci.Allergens {
		if allergens[a] {
			return true
		}
	}
	return false
}

// =============================================================================
// SUBSCRIBER PROFILE
// =============================================================================

// StapleTier is the qualitative presence target for a staple category.
type StapleTier string

const (
	TierOne  StapleTier = "one"
	TierFew  StapleTier = "a few"
	TierMany StapleTier = "many"
)

// PrioritySetting selects which boost (and which priority condition)
// applies during scoring and allocation.
type PrioritySetting int

const (
	PriorityNone       PrioritySetting = 0
	PriorityProtein    PrioritySetting = 1
	PriorityLowCarb    PrioritySetting = 2
	PriorityLowCalorie PrioritySetting = 3
)

// StapleTarget pairs a category with its tier. Staples are kept as an
// ordered slice, not a map: resolution and allocation iterate them in
// profile order so two identical runs pick identically.
type StapleTarget struct {
	Category string
	Tier     StapleTier
}

// PinnedItem is a pre-selected item placed in the box outside the
// allocation algorithm. It consumes capacity and may carry a count > 1.
type PinnedItem struct {
	ID          ItemID
	Category    string
	ProductLine string
	Count       int
	Premium     bool
}

// SubscriberProfile is the read-only input to one assembly run.
type SubscriberProfile struct {
	ID                 SubscriberID
	Allergens          []string
	VetoedFlavors      []string
	DislikedCategories []string
	Staples            []StapleTarget
	Priority           PrioritySetting
	Capacity           int // box size from the subscription tier
	PinnedItems        []PinnedItem
}

// PinnedCount returns the total capacity consumed by pinned items.
func (p SubscriberProfile) PinnedCount() int {
	total := 0
	for _, pi := range p.PinnedItems {
		total += pi.Count
	}
	return total
}

// =============================================================================
// BOX - The assembly run's output
// =============================================================================

// BoxLineItem is one entry in an assembled box. Count is always 1 for
// allocated items; pinned items may carry larger counts from the profile.
type BoxLineItem struct {
	ID              ItemID
	PrimaryCategory string
	ProductLine     string
	Count           int
	Premium         bool
}

// BoxStatus is the customer-facing state of a persisted box.
type BoxStatus string

const (
	// StatusCustomize marks a normal monthly box, still editable.
	StatusCustomize BoxStatus = "Customize"
	// StatusLocked marks an off-cycle box, not editable.
	StatusLocked BoxStatus = "Locked"
)

// Box is the persisted box document (see BoxStore in store.go).
type Box struct {
	ID           string
	SubscriberID SubscriberID
	Month        int // MMYY, e.g. 1026 for October 2026
	Capacity     int
	Status       BoxStatus
	Items        []BoxLineItem
	// OriginalItems is a snapshot of Items taken at creation, kept so a
	// later customization pass can diff against what assembly produced.
	OriginalItems []BoxLineItem
	Popped        bool
	CreatedAt     TimePoint
}

// TotalCount returns the sum of line-item counts.
func (b Box) TotalCount() int {
	return lineItemCount(b.Items)
}

func lineItemCount(items []BoxLineItem) int {
	total := 0
	for _, li := range items {
		total += li.Count
	}
	return total
}

// =============================================================================
// ASSEMBLY CONTEXT - Single-run accumulator
// =============================================================================

// AssemblyContext accumulates state across the stages of one run.
// Lifetime is one Assemble call; it is discarded after the box document
// is handed to storage.
type AssemblyContext struct {
	Profile       SubscriberProfile
	Capacity      int // effective capacity (profile tier or reset override)
	OffCycle      bool
	HistoryAllIDs map[ItemID]bool
	RecentBoxIDs  map[ItemID]bool

	// Resolved per-category staple counts, in profile staple order.
	Targets []CategoryTarget

	// Filtered, scored, grouped catalog.
	Pool    []CatalogItem
	Grouped *GroupedCatalog

	// Working line-item list.
	Items []BoxLineItem
}

// CategoryTarget is a resolved integer count for one staple category.
type CategoryTarget struct {
	Category string
	Count    int
}

// CurrentCount returns the number of slots used so far.
func (ac *AssemblyContext) CurrentCount() int {
	return lineItemCount(ac.Items)
}

// PlacedIDs returns the set of item ids already in the working box.
func (ac *AssemblyContext) PlacedIDs() map[ItemID]bool {
	placed := make(map[ItemID]bool, len(ac.Items))
	for _, li := range ac.Items {
		placed[li.ID] = true
	}
	return placed
}

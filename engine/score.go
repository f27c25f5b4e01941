/*
score.go - Preference scoring and pool ranking

PURPOSE:
  Computes a ranking score per eligible item and orders the pool by it.
  The ordering is load-bearing: every later "take the first match" step
  (allocator picks, completion fallback) relies on the pool staying in
  this order.

SCORE:
  score = totalScore
        + boost selected by the priority setting (none/protein/lowCarb/lowCalorie)
        - 50 if the item was ever delivered to this subscriber before
          (full cross-box history, not just the most recent box)

ORDERING:
  Descending by score, stable: ties preserve catalog enumeration order,
  which keeps runs deterministic.

SEE ALSO:
  - allocate.go: Consumes the ranked, grouped pool
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// historyPenalty discourages repeats across every past box.
var historyPenalty = decimal.NewFromInt(50)

// Score computes the ranking score for one item.
func Score(item CatalogItem, priority PrioritySetting, historyAllIDs map[ItemID]bool) decimal.Decimal {
	score := item.TotalScore
	switch priority {
	case PriorityProtein:
		score = score.Add(item.ProteinBoost)
	case PriorityLowCarb:
		score = score.Add(item.LowCarbBoost)
	case PriorityLowCalorie:
		score = score.Add(item.LowCalorieBoost)
	}
	if historyAllIDs[item.ID] {
		score = score.Sub(historyPenalty)
	}
	return score
}

// RankPool returns a new slice sorted descending by Score. The sort is
// stable so equal scores keep their catalog order.
func RankPool(items []CatalogItem, priority PrioritySetting, historyAllIDs map[ItemID]bool) []CatalogItem {
	type scored struct {
		item  CatalogItem
		score decimal.Decimal
	}
	pool := make([]scored, len(items))
	for i, item := range items {
		pool[i] = scored{item: item, score: Score(item, priority, historyAllIDs)}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score.GreaterThan(pool[j].score)
	})
	ranked := make([]CatalogItem, len(pool))
	for i, s := range pool {
		ranked[i] = s.item
	}
	return ranked
}

// =============================================================================
// GROUPED CATALOG - Ordered grouping by primary category
// =============================================================================

// GroupedCatalog groups a ranked pool by primary category while
// preserving two orders: category order is first-seen over the ranked
// pool, and items within a category keep their rank order. A plain map
// would make category iteration nondeterministic.
type GroupedCatalog struct {
	order  []string
	groups map[string][]CatalogItem
}

// GroupByPrimaryCategory builds a GroupedCatalog from a ranked pool.
// Items with an empty primary category are skipped.
func GroupByPrimaryCategory(items []CatalogItem) *GroupedCatalog {
	g := &GroupedCatalog{groups: make(map[string][]CatalogItem)}
	for _, item := range items {
		category := item.PrimaryCategory
		if category == "" {
			continue
		}
		if _, ok := g.groups[category]; !ok {
			g.order = append(g.order, category)
		}
		g.groups[category] = append(g.groups[category], item)
	}
	return g
}

// Categories returns category names in first-seen order.
func (g *GroupedCatalog) Categories() []string {
	return g.order
}

// Items returns the current sub-pool for a category (rank order).
func (g *GroupedCatalog) Items(category string) []CatalogItem {
	return g.groups[category]
}

// SetItems replaces a category's sub-pool after the allocator consumed
// from it, so a later pass sees the depleted pool.
func (g *GroupedCatalog) SetItems(category string, items []CatalogItem) {
	g.groups[category] = items
}

// Has reports whether the category exists in the grouping.
func (g *GroupedCatalog) Has(category string) bool {
	_, ok := g.groups[category]
	return ok
}

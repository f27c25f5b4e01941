/*
allocate.go - Diversity allocator (the core algorithm)

PURPOSE:
  Greedily picks items for ONE primary category while spreading picks
  across secondary categories, brands, forms, and flavor tags.

MECHANICS:
  - A rotation pointer cycles through the distinct secondary categories
    of the candidate pool (first-seen order, for determinism).
  - Per-value usage counters for brand, form, and flavor tag start at 0
    for every distinct value in the pool; each iteration only accepts
    items whose values are currently least used.
  - When the strict filter matches nothing, constraints relax in a fixed
    order: drop flavor tags, then brand, then form.
  - When even the fully relaxed filter matches nothing, the relaxation
    counter increments, which also rotates the targeted secondary
    category. Certain gates loosen as the counter grows:
      >= 10  items no longer need an item-of-month boost
      >= 12  previously delivered items become acceptable
  - A successful pick resets the relaxation counter; a counter past 15
    aborts the category and returns the picks made so far (inventory
    shortage, non-fatal).

  The candidate pool is pre-ranked (score.go), so "first match" always
  means "highest-scoring match". Allocation returns the depleted pool so
  a later pass over the same category sees what was consumed.

SEE ALSO:
  - distribute.go: Invokes the allocator per leftover category
  - assemble.go: Invokes it per staple category
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// maxRelaxation bounds consecutive failed pick attempts before the
// category is abandoned.
const maxRelaxation = 15

// Relaxation thresholds for the item-of-month and history gates.
const (
	relaxItemOfMonth = 10
	relaxHistory     = 12
)

// AllocationState is the cross-category, read-only input the allocator
// needs besides the pool itself.
type AllocationState struct {
	HistoryAllIDs map[ItemID]bool
	Priority      PrioritySetting
}

// Allocate picks up to desiredCount items from the candidate pool for
// one primary category. It returns the picked line items and the
// remaining pool. Fewer than desiredCount picks is a shortage, not an
// error; the caller decides whether to log it.
func Allocate(category string, desiredCount int, pool []CatalogItem, state AllocationState) (picked []BoxLineItem, remaining []CatalogItem) {
	if desiredCount <= 0 || len(pool) == 0 {
		return nil, pool
	}

	rotation := distinctSecondaryCategories(pool)
	if len(rotation) == 0 {
		return nil, pool
	}

	brandUse := zeroCounters(pool, func(ci CatalogItem) []string { return []string{ci.Brand} })
	formUse := zeroCounters(pool, func(ci CatalogItem) []string { return []string{ci.Form} })
	tagUse := zeroCounters(pool, func(ci CatalogItem) []string { return ci.FlavorTags })

	remaining = append([]CatalogItem(nil), pool...)
	relax := 0
	pointer := 0

	for len(picked) < desiredCount {
		if relax > maxRelaxation {
			break
		}

		current := rotation[(relax+pointer)%len(rotation)]
		idx := firstMatch(remaining, current, relax, state,
			leastUsed(brandUse), leastUsed(formUse), leastUsed(tagUse))
		if idx < 0 {
			relax++
			continue
		}

		item := remaining[idx]
		picked = append(picked, BoxLineItem{
			ID:              item.ID,
			PrimaryCategory: category,
			ProductLine:     item.ProductLine,
			Count:           1,
			Premium:         item.Premium,
		})

		brandUse[item.Brand]++
		formUse[item.Form]++
		for _, tag := range item.FlavorTags {
			tagUse[tag]++
		}

		remaining = append(remaining[:idx], remaining[idx+1:]...)
		pointer++
		relax = 0
	}

	return picked, remaining
}

// firstMatch finds the highest-ranked pool item satisfying the current
// constraints, trying each relaxation level in order: full constraints,
// then without flavor tags, then without brand, then without form. The
// secondary-category, item-of-month, history, and priority gates hold
// at every level.
func firstMatch(pool []CatalogItem, current string, relax int, state AllocationState, leastBrands, leastForms, leastTags map[string]bool) int {
	for level := 0; level <= 3; level++ {
		for i, item := range pool {
			if item.SecondaryCategory != current {
				continue
			}
			if relax < relaxItemOfMonth && !item.ItemOfMonthBoost.IsPositive() {
				continue
			}
			if relax < relaxHistory && state.HistoryAllIDs[item.ID] {
				continue
			}
			if !priorityCondition(item, state.Priority) {
				continue
			}
			if level < 3 && !leastForms[item.Form] {
				continue
			}
			if level < 2 && !leastBrands[item.Brand] {
				continue
			}
			if level < 1 && !allTagsLeastUsed(item, leastTags) {
				continue
			}
			return i
		}
	}
	return -1
}

func allTagsLeastUsed(item CatalogItem, leastTags map[string]bool) bool {
	for _, tag := range item.FlavorTags {
		if !leastTags[tag] {
			return false
		}
	}
	return true
}

// =============================================================================
// PRIORITY CONDITION
// =============================================================================

// Categories that satisfy the protein and low-carb conditions outright.
var priorityExemptCategories = map[string]bool{
	"Dried Fruit":   true,
	"Fruit Gummies": true,
}

var (
	proteinFloor   = decimal.NewFromInt(7)
	carbCeiling    = decimal.NewFromInt(10)
	calorieCeiling = decimal.NewFromInt(150)
)

// priorityCondition gates allocator picks by the subscriber's priority
// setting. Missing nutrition values read as zero.
func priorityCondition(item CatalogItem, priority PrioritySetting) bool {
	switch priority {
	case PriorityProtein:
		return item.Protein.GreaterThan(proteinFloor) ||
			item.Carbs.LessThan(carbCeiling) ||
			priorityExemptCategories[item.PrimaryCategory]
	case PriorityLowCarb:
		return item.Carbs.LessThan(carbCeiling) ||
			priorityExemptCategories[item.PrimaryCategory]
	case PriorityLowCalorie:
		return item.Calories.LessThan(calorieCeiling)
	default:
		return true
	}
}

// =============================================================================
// COUNTER HELPERS
// =============================================================================

// distinctSecondaryCategories returns the distinct secondary categories
// of the pool in first-seen order.
func distinctSecondaryCategories(pool []CatalogItem) []string {
	seen := make(map[string]bool)
	var result []string
	for _, item := range pool {
		if seen[item.SecondaryCategory] {
			continue
		}
		seen[item.SecondaryCategory] = true
		result = append(result, item.SecondaryCategory)
	}
	return result
}

// zeroCounters initializes a usage counter at 0 for every distinct value
// the extractor yields across the pool.
func zeroCounters(pool []CatalogItem, extract func(CatalogItem) []string) map[string]int {
	counters := make(map[string]int)
	for _, item := range pool {
		for _, v := range extract(item) {
			if _, ok := counters[v]; !ok {
				counters[v] = 0
			}
		}
	}
	return counters
}

// leastUsed returns the set of values currently at the minimum usage
// count. Used for membership only, so map order cannot leak into picks.
func leastUsed(counters map[string]int) map[string]bool {
	minCount := 0
	first := true
	for _, count := range counters {
		if first || count < minCount {
			minCount = count
			first = false
		}
	}
	result := make(map[string]bool)
	for value, count := range counters {
		if count == minCount {
			result[value] = true
		}
	}
	return result
}

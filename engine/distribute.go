/*
distribute.go - Distribution planner and completion fallback

PURPOSE:
  After staples are allocated, two stages close the gap to capacity:

  1. Distribution planner: spreads the remaining budget evenly across
     the leftover categories (present in the grouped catalog, not a
     staple, not disliked) and runs the allocator per category. The
     first (countToFill mod N) categories get one extra slot. If the box
     is still short afterwards, one - and only one - retry pass runs
     against the same category set.

  2. Completion fallback: fills still-open capacity straight from the
     globally ranked pool, ignoring category targets and diversity.
     Running out of pool here is a logged shortage, never an error.

SEE ALSO:
  - allocate.go: Per-category allocation
  - assemble.go: Sequencing of these stages
*/
package engine

// LeftoverCategories lists the categories eligible for even
// distribution: grouped-catalog categories that are neither staple
// targets nor disliked. Order follows the grouped catalog (first-seen
// over the ranked pool).
func LeftoverCategories(grouped *GroupedCatalog, targets []CategoryTarget, disliked []string) []string {
	isStaple := make(map[string]bool, len(targets))
	for _, t := range targets {
		isStaple[t.Category] = true
	}
	isDisliked := stringSet(disliked)

	var result []string
	for _, category := range grouped.Categories() {
		if isStaple[category] || isDisliked[category] {
			continue
		}
		result = append(result, category)
	}
	return result
}

// DistributeLeftovers runs one even-distribution pass: countToFill slots
// split across the categories, base count each, remainder categories
// (iteration order) getting one extra. Categories whose sub-pool is
// empty are skipped without reassigning their share. Appends picks to
// the context.
func DistributeLeftovers(ctx *AssemblyContext, categories []string, countToFill int, state AllocationState) {
	if countToFill <= 0 || len(categories) == 0 {
		return
	}

	base := countToFill / len(categories)
	remainder := countToFill % len(categories)

	for i, category := range categories {
		pool := ctx.Grouped.Items(category)
		if len(pool) == 0 {
			continue
		}

		count := base
		if i < remainder {
			count++
		}

		picked, remaining := Allocate(category, count, pool, state)
		ctx.Items = append(ctx.Items, picked...)
		ctx.Grouped.SetItems(category, remaining)
	}
}

// CompleteFromRankedPool appends the highest-ranked not-yet-placed items
// until the box reaches capacity or the pool runs out. Diversity and
// category targets are ignored. Returns the number of slots left
// unfilled (0 when the box is full).
func CompleteFromRankedPool(ctx *AssemblyContext) int {
	open := ctx.Capacity - ctx.CurrentCount()
	if open <= 0 {
		return 0
	}

	placed := ctx.PlacedIDs()
	for _, item := range ctx.Pool {
		if open == 0 {
			break
		}
		if placed[item.ID] {
			continue
		}
		ctx.Items = append(ctx.Items, BoxLineItem{
			ID:              item.ID,
			PrimaryCategory: item.PrimaryCategory,
			ProductLine:     item.ProductLine,
			Count:           1,
			Premium:         item.Premium,
		})
		placed[item.ID] = true
		open--
	}
	return open
}

/*
filter.go - Catalog filter criteria and eligibility predicate

PURPOSE:
  Builds the exclusion criteria for one assembly run and defines the
  single predicate that decides whether a catalog item may enter the
  eligible pool. Store implementations apply the same predicate (the
  sqlite store pushes the cheap scalar parts into SQL and finishes with
  Eligible; the memory store applies Eligible directly), so eligibility
  has exactly one definition.

EXCLUSIONS (an item is OUT if any holds):
  - replacement-only
  - already pinned for this subscriber
  - present in the most recent box
  - carries any subscriber allergen
  - carries any expanded vetoed-flavor tag
  - primary category is disliked (pinned items bypass filtering entirely,
    they are never run through this predicate)
  - off-cycle runs only: neither in stock nor approved

SEE ALSO:
  - flavor.go: Vetoed-flavor expansion feeding ExcludedFlavorTags
  - store.go: CatalogStore, which consumes FilterCriteria
*/
package engine

// FilterCriteria is the complete exclusion input for one run's catalog
// query. Built once by the orchestrator from the profile and history.
type FilterCriteria struct {
	Allergens          map[string]bool
	ExcludedFlavorTags map[string]bool
	DislikedCategories map[string]bool
	ExcludedIDs        map[ItemID]bool // pinned + most recent box
	OffCycle           bool
}

// BuildFilterCriteria derives the run's criteria from the profile and
// the most-recent-box lookup.
func BuildFilterCriteria(profile SubscriberProfile, recentBoxIDs map[ItemID]bool, offCycle bool) FilterCriteria {
	excluded := make(map[ItemID]bool, len(profile.PinnedItems)+len(recentBoxIDs))
	for _, pi := range profile.PinnedItems {
		excluded[pi.ID] = true
	}
	for id := range recentBoxIDs {
		excluded[id] = true
	}

	return FilterCriteria{
		Allergens:          stringSet(profile.Allergens),
		ExcludedFlavorTags: FlavorExclusionSet(profile.VetoedFlavors),
		DislikedCategories: stringSet(profile.DislikedCategories),
		ExcludedIDs:        excluded,
		OffCycle:           offCycle,
	}
}

// Eligible reports whether an item may enter the eligible pool.
func (fc FilterCriteria) Eligible(item CatalogItem) bool {
	if item.ReplacementOnly {
		return false
	}
	if fc.ExcludedIDs[item.ID] {
		return false
	}
	if item.HasAnyAllergen(fc.Allergens) {
		return false
	}
	for _, tag := range item.FlavorTags {
		if fc.ExcludedFlavorTags[tag] {
			return false
		}
	}
	if fc.DislikedCategories[item.PrimaryCategory] {
		return false
	}
	if fc.OffCycle && !item.InStock && !item.Approved {
		return false
	}
	return true
}

// FilterItems applies Eligible over a slice, preserving order, stopping
// at limit items (limit <= 0 means unbounded). Used by the memory store
// and by the sqlite store's post-SQL pass.
func FilterItems(items []CatalogItem, fc FilterCriteria, limit int) []CatalogItem {
	var result []CatalogItem
	for _, item := range items {
		if !fc.Eligible(item) {
			continue
		}
		result = append(result, item)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

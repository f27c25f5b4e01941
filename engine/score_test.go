package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/munchcrate/box-engine/engine"
)

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// =============================================================================
// SCORING TESTS
// =============================================================================

func TestScore_BoostSelection(t *testing.T) {
	item := engine.CatalogItem{
		ID:              "snack-1",
		TotalScore:      dec(100),
		ProteinBoost:    dec(10),
		LowCarbBoost:    dec(20),
		LowCalorieBoost: dec(30),
	}

	cases := []struct {
		priority engine.PrioritySetting
		want     int64
	}{
		{engine.PriorityNone, 100},
		{engine.PriorityProtein, 110},
		{engine.PriorityLowCarb, 120},
		{engine.PriorityLowCalorie, 130},
	}
	for _, c := range cases {
		got := engine.Score(item, c.priority, nil)
		if !got.Equal(dec(c.want)) {
			t.Errorf("priority %d: expected score %d, got %v", c.priority, c.want, got)
		}
	}
}

func TestScore_HistoryPenalty(t *testing.T) {
	// GIVEN: An item delivered in some past box (full history, not just
	//        the most recent one)
	// WHEN: Scoring
	// THEN: 50 comes off the score

	item := engine.CatalogItem{ID: "snack-1", TotalScore: dec(100)}
	history := map[engine.ItemID]bool{"snack-1": true}

	got := engine.Score(item, engine.PriorityNone, history)
	if !got.Equal(dec(50)) {
		t.Errorf("expected 50 after history penalty, got %v", got)
	}
}

func TestRankPool_DescendingAndStable(t *testing.T) {
	// GIVEN: Items with mixed and tied scores
	// WHEN: Ranking
	// THEN: Descending by score; ties keep catalog enumeration order

	items := []engine.CatalogItem{
		{ID: "low", TotalScore: dec(10)},
		{ID: "tie-first", TotalScore: dec(50)},
		{ID: "high", TotalScore: dec(90)},
		{ID: "tie-second", TotalScore: dec(50)},
	}

	ranked := engine.RankPool(items, engine.PriorityNone, nil)

	want := []engine.ItemID{"high", "tie-first", "tie-second", "low"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ranked[i].ID)
		}
	}
}

func TestRankPool_HistoryDemotes(t *testing.T) {
	items := []engine.CatalogItem{
		{ID: "repeat", TotalScore: dec(60)},
		{ID: "fresh", TotalScore: dec(40)},
	}
	history := map[engine.ItemID]bool{"repeat": true}

	ranked := engine.RankPool(items, engine.PriorityNone, history)

	if ranked[0].ID != "fresh" {
		t.Errorf("expected fresh item first, got %s", ranked[0].ID)
	}
}

// =============================================================================
// GROUPED CATALOG TESTS
// =============================================================================

func TestGroupByPrimaryCategory_FirstSeenOrder(t *testing.T) {
	// GIVEN: A ranked pool interleaving categories
	// WHEN: Grouping
	// THEN: Category order is first-seen over the ranked pool and items
	//       keep rank order inside each category

	items := []engine.CatalogItem{
		{ID: "c1", PrimaryCategory: "Chips"},
		{ID: "n1", PrimaryCategory: "Nuts"},
		{ID: "c2", PrimaryCategory: "Chips"},
		{ID: "", PrimaryCategory: ""}, // no category, skipped
	}

	grouped := engine.GroupByPrimaryCategory(items)

	categories := grouped.Categories()
	if len(categories) != 2 || categories[0] != "Chips" || categories[1] != "Nuts" {
		t.Fatalf("expected [Chips Nuts], got %v", categories)
	}

	chips := grouped.Items("Chips")
	if len(chips) != 2 || chips[0].ID != "c1" || chips[1].ID != "c2" {
		t.Errorf("expected Chips sub-pool [c1 c2], got %v", chips)
	}
	if grouped.Has("") {
		t.Error("empty category must not be grouped")
	}
}

func TestGroupedCatalog_SetItemsReplacesSubPool(t *testing.T) {
	items := []engine.CatalogItem{
		{ID: "c1", PrimaryCategory: "Chips"},
		{ID: "c2", PrimaryCategory: "Chips"},
	}
	grouped := engine.GroupByPrimaryCategory(items)

	grouped.SetItems("Chips", items[1:])

	if got := grouped.Items("Chips"); len(got) != 1 || got[0].ID != "c2" {
		t.Errorf("expected depleted sub-pool [c2], got %v", got)
	}
}

package engine_test

import (
	"testing"

	"github.com/munchcrate/box-engine/engine"
)

// boosted builds a pool item that passes the item-of-month gate without
// relaxation.
func boosted(id engine.ItemID, secondary, brand, form string, tags ...string) engine.CatalogItem {
	return engine.CatalogItem{
		ID:                id,
		PrimaryCategory:   "Chips",
		SecondaryCategory: secondary,
		Brand:             brand,
		Form:              form,
		FlavorTags:        tags,
		ItemOfMonthBoost:  dec(1),
	}
}

func pickedIDs(picked []engine.BoxLineItem) []engine.ItemID {
	ids := make([]engine.ItemID, len(picked))
	for i, li := range picked {
		ids[i] = li.ID
	}
	return ids
}

// =============================================================================
// DIVERSITY ALLOCATOR TESTS
// =============================================================================

func TestAllocate_SingleValuePoolNeedsNoRelaxation(t *testing.T) {
	// GIVEN: A pool with one distinct brand, form, and flavor tag
	// WHEN: Allocating 3 items
	// THEN: All 3 are picked; the single value is always least-used so
	//       the strict filter matches every time

	pool := []engine.CatalogItem{
		boosted("c1", "Tortilla", "Acme", "Bag", "Salty"),
		boosted("c2", "Tortilla", "Acme", "Bag", "Salty"),
		boosted("c3", "Tortilla", "Acme", "Bag", "Salty"),
	}

	picked, remaining := engine.Allocate("Chips", 3, pool, engine.AllocationState{})

	if len(picked) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(picked))
	}
	if len(remaining) != 0 {
		t.Errorf("expected depleted pool, got %d items", len(remaining))
	}
	for _, li := range picked {
		if li.Count != 1 {
			t.Errorf("allocated line items must carry count 1, got %d", li.Count)
		}
		if li.PrimaryCategory != "Chips" {
			t.Errorf("expected category Chips, got %s", li.PrimaryCategory)
		}
	}
}

func TestAllocate_RotatesSecondaryCategories(t *testing.T) {
	// GIVEN: Two secondary categories interleaved in the pool
	// WHEN: Allocating 4 items
	// THEN: Picks alternate between the categories in first-seen rotation
	//       order

	pool := []engine.CatalogItem{
		boosted("a1", "Tortilla", "B1", "F1"),
		boosted("b1", "Kettle", "B2", "F2"),
		boosted("a2", "Tortilla", "B3", "F3"),
		boosted("b2", "Kettle", "B4", "F4"),
	}

	picked, _ := engine.Allocate("Chips", 4, pool, engine.AllocationState{})

	got := pickedIDs(picked)
	want := []engine.ItemID{"a1", "b1", "a2", "b2"}
	if len(got) != 4 {
		t.Fatalf("expected 4 picks, got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestAllocate_SpreadsAcrossBrands(t *testing.T) {
	// GIVEN: Two items of brand A ahead of one item of brand B
	// WHEN: Allocating 2 items
	// THEN: The second pick skips the second A item because A is no
	//       longer least-used

	pool := []engine.CatalogItem{
		boosted("a-first", "Tortilla", "A", "Bag"),
		boosted("a-second", "Tortilla", "A", "Bag"),
		boosted("b-first", "Tortilla", "B", "Bag"),
	}

	picked, _ := engine.Allocate("Chips", 2, pool, engine.AllocationState{})

	got := pickedIDs(picked)
	if len(got) != 2 || got[0] != "a-first" || got[1] != "b-first" {
		t.Errorf("expected [a-first b-first], got %v", got)
	}
}

func TestAllocate_ItemOfMonthGateRelaxesAtTen(t *testing.T) {
	// GIVEN: A pool where no item carries an item-of-month boost
	// WHEN: Allocating 1 item
	// THEN: Ten failed attempts relax the gate and the item is picked

	pool := []engine.CatalogItem{
		{ID: "plain", PrimaryCategory: "Chips", SecondaryCategory: "Tortilla", Brand: "A", Form: "Bag"},
	}

	picked, remaining := engine.Allocate("Chips", 1, pool, engine.AllocationState{})

	if len(picked) != 1 || picked[0].ID != "plain" {
		t.Fatalf("expected the un-boosted item after relaxation, got %v", picked)
	}
	if len(remaining) != 0 {
		t.Errorf("expected depleted pool, got %d items", len(remaining))
	}
}

func TestAllocate_HistoryGateRelaxesAtTwelve(t *testing.T) {
	// GIVEN: A pool whose only item was delivered before
	// WHEN: Allocating 1 item
	// THEN: Twelve failed attempts relax the history gate

	pool := []engine.CatalogItem{
		boosted("old-favorite", "Tortilla", "A", "Bag"),
	}
	state := engine.AllocationState{
		HistoryAllIDs: map[engine.ItemID]bool{"old-favorite": true},
	}

	picked, _ := engine.Allocate("Chips", 1, pool, state)

	if len(picked) != 1 || picked[0].ID != "old-favorite" {
		t.Errorf("expected the historical item after relaxation, got %v", picked)
	}
}

func TestAllocate_AbortsPastMaxRelaxation(t *testing.T) {
	// GIVEN: A pool where the priority condition can never hold
	// WHEN: Allocating with priority 3 (low calorie)
	// THEN: The relaxation counter passes 15 and the category aborts
	//       with zero picks (inventory shortage, not an error)

	item := boosted("dense", "Tortilla", "A", "Bag")
	item.Calories = dec(500)
	pool := []engine.CatalogItem{item}

	picked, remaining := engine.Allocate("Chips", 1, pool, engine.AllocationState{
		Priority: engine.PriorityLowCalorie,
	})

	if len(picked) != 0 {
		t.Errorf("expected no picks, got %v", picked)
	}
	if len(remaining) != 1 {
		t.Errorf("pool must be returned intact, got %d items", len(remaining))
	}
}

func TestAllocate_PriorityConditionExemptCategories(t *testing.T) {
	// GIVEN: A high-carb item in an exempt category
	// WHEN: Allocating under the low-carb priority
	// THEN: The exemption admits it

	item := engine.CatalogItem{
		ID:                "gummies",
		PrimaryCategory:   "Fruit Gummies",
		SecondaryCategory: "Soft",
		Brand:             "A",
		Form:              "Pouch",
		ItemOfMonthBoost:  dec(1),
		Carbs:             dec(30),
	}

	picked, _ := engine.Allocate("Fruit Gummies", 1, []engine.CatalogItem{item}, engine.AllocationState{
		Priority: engine.PriorityLowCarb,
	})

	if len(picked) != 1 {
		t.Errorf("expected exempt-category item to be picked, got %v", picked)
	}
}

func TestAllocate_ShortPoolReturnsPartial(t *testing.T) {
	pool := []engine.CatalogItem{
		boosted("only", "Tortilla", "A", "Bag"),
	}

	picked, _ := engine.Allocate("Chips", 3, pool, engine.AllocationState{})

	if len(picked) != 1 {
		t.Errorf("expected 1 pick from a 1-item pool, got %d", len(picked))
	}
}

func TestAllocate_ZeroDesiredIsNoOp(t *testing.T) {
	pool := []engine.CatalogItem{boosted("x", "Tortilla", "A", "Bag")}

	picked, remaining := engine.Allocate("Chips", 0, pool, engine.AllocationState{})

	if picked != nil {
		t.Errorf("expected no picks, got %v", picked)
	}
	if len(remaining) != 1 {
		t.Errorf("pool must be untouched, got %d items", len(remaining))
	}
}

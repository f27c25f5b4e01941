package engine_test

import (
	"errors"
	"testing"

	"github.com/munchcrate/box-engine/engine"
)

func targetsByCategory(targets []engine.CategoryTarget) map[string]int {
	m := make(map[string]int, len(targets))
	for _, t := range targets {
		m[t.Category] = t.Count
	}
	return m
}

// =============================================================================
// QUANTITY RESOLVER TESTS
// =============================================================================

func TestResolveQuantities_ManyAndOne(t *testing.T) {
	// GIVEN: Staples {"Chips": many, "Nuts": one}, capacity 12, nothing pinned
	// WHEN: Resolving
	// THEN: The first ladder tier (2,1,1) fits (sum 3 < 12); no "a few"
	//       entries exist so the bump cannot apply -> {"Chips": 2, "Nuts": 1}

	staples := []engine.StapleTarget{
		{Category: "Chips", Tier: engine.TierMany},
		{Category: "Nuts", Tier: engine.TierOne},
	}

	targets, skip, err := engine.ResolveQuantities(staples, 12, 12, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("unexpected skip signal")
	}

	counts := targetsByCategory(targets)
	if counts["Chips"] != 2 {
		t.Errorf("expected Chips target 2, got %d", counts["Chips"])
	}
	if counts["Nuts"] != 1 {
		t.Errorf("expected Nuts target 1, got %d", counts["Nuts"])
	}
}

func TestResolveQuantities_FewBumpSpendsRemaining(t *testing.T) {
	// GIVEN: One "many" and one "a few" staple, adjusted capacity 10
	// WHEN: Resolving
	// THEN: Tier (2,1,1) sums to 3 < 10; remaining 7 bumps few to
	//       min(2, 1+7/1) = 2

	staples := []engine.StapleTarget{
		{Category: "Chips", Tier: engine.TierMany},
		{Category: "Jerky", Tier: engine.TierFew},
	}

	targets, _, err := engine.ResolveQuantities(staples, 10, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := targetsByCategory(targets)
	if counts["Chips"] != 2 {
		t.Errorf("expected Chips target 2, got %d", counts["Chips"])
	}
	if counts["Jerky"] != 2 {
		t.Errorf("expected Jerky target 2, got %d", counts["Jerky"])
	}
}

func TestResolveQuantities_FallbackWhenNoTierFits(t *testing.T) {
	// GIVEN: Six "many" staples against adjusted capacity 12
	// WHEN: Resolving
	// THEN: Tier (2,1,1) sums to 12, not strictly under 12, and every
	//       later tier sums higher; the (1,1,1) fallback applies and its
	//       remaining is positive, so no spread rule fires

	staples := make([]engine.StapleTarget, 6)
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, n := range names {
		staples[i] = engine.StapleTarget{Category: n, Tier: engine.TierMany}
	}

	targets, _, err := engine.ResolveQuantities(staples, 12, 12, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, target := range targets {
		if target.Count != 1 {
			t.Errorf("expected fallback count 1 for %s, got %d", target.Category, target.Count)
		}
	}
}

func TestResolveQuantities_SkipWhenPinnedExceedCapacity(t *testing.T) {
	// GIVEN: Adjusted capacity below zero (pinned items alone overflow)
	// WHEN: Resolving
	// THEN: Skip is signalled, no targets, no error

	staples := []engine.StapleTarget{{Category: "Chips", Tier: engine.TierMany}}

	targets, skip, err := engine.ResolveQuantities(staples, 12, -2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skip {
		t.Fatal("expected skip signal for negative adjusted capacity")
	}
	if targets != nil {
		t.Errorf("expected no targets on skip, got %v", targets)
	}
}

func TestResolveQuantities_CategoryUniverseOverflow(t *testing.T) {
	// GIVEN: 6 staples and 5 disliked categories against the fixed
	//        10-category universe
	// WHEN: Resolving
	// THEN: InvalidConfiguration

	staples := make([]engine.StapleTarget, 6)
	for i, n := range []string{"A", "B", "C", "D", "E", "F"} {
		staples[i] = engine.StapleTarget{Category: n, Tier: engine.TierOne}
	}

	_, _, err := engine.ResolveQuantities(staples, 20, 20, 5)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, engine.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
	if !engine.IsClientError(err) {
		t.Error("expected a client error")
	}
}

func TestResolveQuantities_UnknownTier(t *testing.T) {
	staples := []engine.StapleTarget{{Category: "Chips", Tier: "plenty"}}

	_, _, err := engine.ResolveQuantities(staples, 12, 12, 0)
	if !errors.Is(err, engine.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestResolveQuantities_ShrinkCapsAgainstOriginalCapacity(t *testing.T) {
	// GIVEN: Capacity 12 with 4 slots pinned (adjusted 8) and staples
	//        whose resolved counts total above 12
	// WHEN: Resolving
	// THEN: Shrink-to-fit caps the total against the ORIGINAL capacity
	//       (12), not the adjusted one (8). Pinning this asymmetry: the
	//       resolver reserves pinned slots only while sizing ambition,
	//       never while capping it.

	staples := []engine.StapleTarget{
		{Category: "A", Tier: engine.TierMany},
		{Category: "B", Tier: engine.TierMany},
		{Category: "C", Tier: engine.TierMany},
		{Category: "D", Tier: engine.TierMany},
		{Category: "E", Tier: engine.TierMany},
		{Category: "F", Tier: engine.TierMany},
		{Category: "G", Tier: engine.TierFew},
	}
	// Tier (2,1,1): sum = 2*6 + 1 = 13, not under adjusted 8. All later
	// tiers sum higher. Fallback (1,1,1): remaining = 8 - 7 = 1, so no
	// spread rule fires and every target resolves to 1: total 7 <= 12,
	// nothing shrinks.
	targets, _, err := engine.ResolveQuantities(staples, 12, 8, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, target := range targets {
		total += target.Count
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}

	// Now with adjusted capacity 25 and capacity 9: the ladder picks tier
	// (2,1,1) (sum 13 < 25), bump raises few to 2, total 14. Shrink must
	// stop at the ORIGINAL capacity 9, decrementing largest-first.
	targets, _, err = engine.ResolveQuantities(staples, 9, 25, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total = 0
	for _, target := range targets {
		total += target.Count
		if target.Count < 1 {
			t.Errorf("target %s shrank below 1", target.Category)
		}
	}
	if total != 9 {
		t.Errorf("expected shrink to original capacity 9, got total %d", total)
	}
}

func TestResolveQuantities_ShrinkStopsAtOnePerCategory(t *testing.T) {
	// GIVEN: More staples than capacity, all resolvable only to 1
	// WHEN: Resolving with capacity 2
	// THEN: Shrink cannot push targets below 1; the total stays above
	//       capacity and the orchestrator is responsible for capping picks

	staples := []engine.StapleTarget{
		{Category: "A", Tier: engine.TierOne},
		{Category: "B", Tier: engine.TierOne},
		{Category: "C", Tier: engine.TierOne},
	}

	targets, _, err := engine.ResolveQuantities(staples, 2, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, target := range targets {
		if target.Count != 1 {
			t.Errorf("expected count 1 for %s, got %d", target.Category, target.Count)
		}
	}
}

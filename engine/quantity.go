/*
quantity.go - Quantity resolver for staple targets

PURPOSE:
  Converts qualitative staple tiers ("one" / "a few" / "many") into
  integer per-category counts that fit the subscriber's capacity.

MECHANICS:
  The resolver works against the adjusted capacity (capacity minus
  pinned-item counts). It walks a fixed ladder of weight triples
  (many, few, one) and picks the first whose weighted sum over the
  staple tier counts is strictly below the adjusted capacity, then
  bumps one weight to soak up part of the remaining budget. A final
  shrink-to-fit pass caps the total against the ORIGINAL capacity -
  not the adjusted one. That asymmetry reserves pinned slots without
  reducing staple ambition and is kept on purpose (pinned by test).

SKIP SIGNAL:
  If the adjusted capacity is negative (pinned items alone exceed the
  box), the resolver signals skip: the box will consist of pinned items
  only and no allocation runs.

SEE ALSO:
  - assemble.go: Calls the resolver before filtering/scoring
*/
package engine

// categoryUniverse is the fixed number of primary categories the
// storefront exposes. Staples plus dislikes can never exceed it.
const categoryUniverse = 10

// tierWeights is one (many, few, one) weight triple from the ladder.
type tierWeights struct {
	many, few, one int
}

func (w tierWeights) sum(manyCount, fewCount, oneCount int) int {
	return w.many*manyCount + w.few*fewCount + w.one*oneCount
}

func (w tierWeights) weightFor(tier StapleTier) int {
	switch tier {
	case TierMany:
		return w.many
	case TierFew:
		return w.few
	default:
		return w.one
	}
}

// ResolveQuantities turns the profile's staples into per-category
// integer targets. Returns skip=true when pinned items alone exceed
// capacity (adjustedCapacity < 0); in that case no targets are produced
// and allocation must not run.
func ResolveQuantities(staples []StapleTarget, capacity, adjustedCapacity, dislikedCount int) (targets []CategoryTarget, skip bool, err error) {
	if adjustedCapacity < 0 {
		return nil, true, nil
	}
	if len(staples)+dislikedCount > categoryUniverse {
		return nil, false, &ConfigError{
			Field:  "staples",
			Reason: "staple and disliked category counts exceed the category universe",
		}
	}

	manyCount, fewCount, oneCount := 0, 0, 0
	for _, st := range staples {
		switch st.Tier {
		case TierMany:
			manyCount++
		case TierFew:
			fewCount++
		case TierOne:
			oneCount++
		default:
			return nil, false, &ConfigError{
				Field:  "staples",
				Reason: "unknown tier " + string(st.Tier),
			}
		}
	}

	weights := resolveWeights(adjustedCapacity, manyCount, fewCount, oneCount)

	targets = make([]CategoryTarget, len(staples))
	for i, st := range staples {
		targets[i] = CategoryTarget{Category: st.Category, Count: weights.weightFor(st.Tier)}
	}

	shrinkToFit(targets, capacity)
	return targets, false, nil
}

// quantityLadder holds the tiers tried in order. Each entry pairs a
// weight triple with a bump that spends part of the leftover budget.
// Bumps only apply when their divisor tier count is nonzero.
var quantityLadder = []struct {
	weights tierWeights
	bump    func(w tierWeights, remaining, manyCount, fewCount int) tierWeights
}{
	{tierWeights{2, 1, 1}, func(w tierWeights, remaining, _, fewCount int) tierWeights {
		if fewCount > 0 {
			w.few = minInt(2, 1+remaining/fewCount)
		}
		return w
	}},
	{tierWeights{2, 2, 1}, func(w tierWeights, remaining, manyCount, _ int) tierWeights {
		if manyCount > 0 {
			w.many = minInt(3, 2+remaining/manyCount)
		}
		return w
	}},
	{tierWeights{3, 2, 1}, func(w tierWeights, remaining, manyCount, _ int) tierWeights {
		if manyCount > 0 {
			w.many = minInt(4, 3+remaining/manyCount)
		}
		return w
	}},
	{tierWeights{4, 2, 1}, func(w tierWeights, remaining, manyCount, _ int) tierWeights {
		if manyCount > 0 {
			w.many = minInt(5, 4+remaining/manyCount)
		}
		return w
	}},
	{tierWeights{5, 2, 1}, func(w tierWeights, remaining, _, fewCount int) tierWeights {
		if fewCount > 0 {
			w.few = minInt(3, 2+remaining/fewCount)
		}
		return w
	}},
	{tierWeights{5, 3, 1}, func(w tierWeights, remaining, manyCount, _ int) tierWeights {
		if manyCount > 0 {
			w.many = minInt(6, 5+remaining/manyCount)
		}
		return w
	}},
}

// resolveWeights picks the first ladder tier whose weighted sum is
// strictly under the adjusted capacity and applies its bump. When no
// tier fits, the (1,1,1) fallback applies with its own spread rules.
func resolveWeights(adjustedCapacity, manyCount, fewCount, oneCount int) tierWeights {
	for _, tier := range quantityLadder {
		weightedSum := tier.weights.sum(manyCount, fewCount, oneCount)
		if weightedSum >= adjustedCapacity {
			continue
		}
		remaining := adjustedCapacity - weightedSum
		if remaining > 0 {
			return tier.bump(tier.weights, remaining, manyCount, fewCount)
		}
		return tier.weights
	}

	w := tierWeights{1, 1, 1}
	remaining := adjustedCapacity - w.sum(manyCount, fewCount, oneCount)
	if remaining < 0 && manyCount > 0 {
		w.many = maxInt(4, (adjustedCapacity-3*fewCount-oneCount)/manyCount)
	} else if manyCount == 0 && fewCount > 0 {
		w.few = maxInt(2, (adjustedCapacity-5*manyCount-oneCount)/fewCount)
	}
	return w
}

// shrinkToFit repeatedly decrements the single largest target above 1
// until the total fits the original capacity or nothing can shrink.
// Ties go to the earliest entry, mirroring a stable descending sort.
func shrinkToFit(targets []CategoryTarget, capacity int) {
	total := 0
	for _, t := range targets {
		total += t.Count
	}
	for total > capacity {
		idx := -1
		for i, t := range targets {
			if t.Count > 1 && (idx == -1 || t.Count > targets[idx].Count) {
				idx = i
			}
		}
		if idx == -1 {
			return
		}
		targets[idx].Count--
		total--
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

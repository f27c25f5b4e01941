/*
Package factory provides JSON to Go subscriber-profile conversion.

PURPOSE:
  Converts JSON profile definitions into engine.SubscriberProfile with
  validation. The admin surface and the seed tooling both speak this
  schema; everything invalid is rejected here, before a profile can
  reach a store, so the engine only ever re-checks run-level
  consistency.

JSON SCHEMA:
  {
    "id": "sub-123",
    "capacity": 16,
    "priority": 1,
    "allergens": ["Peanut"],
    "vetoed_flavors": ["Berry"],
    "disliked_categories": ["Candy"],
    "staples": [
      {"category": "Protein Bars", "tier": "many"},
      {"category": "Nuts", "tier": "one"}
    ],
    "pinned_items": [
      {"id": "snk-042", "category": "Chips", "count": 2}
    ]
  }

VALIDATION:
  - capacity must be one of the subscription tiers (12, 16, 20)
  - priority must be 0..3
  - staple tiers must be "one", "a few", or "many"
  - staple + disliked categories must fit the 10-category universe
  - pinned counts must be >= 1
  All failures unwrap to engine.ErrInvalidConfiguration.

SEE ALSO:
  - engine/types.go: SubscriberProfile definition
  - api/handlers.go: The consumer of this factory
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/munchcrate/box-engine/engine"
)

// subscriptionTiers are the valid base capacities.
var subscriptionTiers = map[int]bool{12: true, 16: true, 20: true}

// maxCategories is the fixed primary-category universe size.
const maxCategories = 10

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProfileJSON is the JSON representation of a subscriber profile.
type ProfileJSON struct {
	ID                 string           `json:"id"`
	Capacity           int              `json:"capacity"`
	Priority           int              `json:"priority"`
	Allergens          []string         `json:"allergens,omitempty"`
	VetoedFlavors      []string         `json:"vetoed_flavors,omitempty"`
	DislikedCategories []string         `json:"disliked_categories,omitempty"`
	Staples            []StapleJSON     `json:"staples,omitempty"`
	PinnedItems        []PinnedItemJSON `json:"pinned_items,omitempty"`
}

// StapleJSON is one staple target.
type StapleJSON struct {
	Category string `json:"category"`
	Tier     string `json:"tier"`
}

// PinnedItemJSON is one pre-selected item.
type PinnedItemJSON struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	ProductLine string `json:"product_line,omitempty"`
	Count       int    `json:"count"`
	Premium     bool   `json:"premium,omitempty"`
}

// =============================================================================
// PROFILE FACTORY
// =============================================================================

// ProfileFactory parses and validates subscriber profiles.
type ProfileFactory struct{}

func NewProfileFactory() *ProfileFactory {
	return &ProfileFactory{}
}

// ParseProfile converts a JSON string into a validated profile.
func (f *ProfileFactory) ParseProfile(jsonStr string) (engine.SubscriberProfile, error) {
	var pj ProfileJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return engine.SubscriberProfile{}, &engine.ConfigError{Field: "profile", Reason: err.Error()}
	}
	return f.FromJSON(pj)
}

// FromJSON converts a decoded ProfileJSON into a validated profile.
func (f *ProfileFactory) FromJSON(pj ProfileJSON) (engine.SubscriberProfile, error) {
	if pj.ID == "" {
		return engine.SubscriberProfile{}, &engine.ConfigError{Field: "id", Reason: "required"}
	}
	if !subscriptionTiers[pj.Capacity] {
		return engine.SubscriberProfile{}, &engine.ConfigError{
			Field:  "capacity",
			Reason: fmt.Sprintf("unsupported subscription tier %d", pj.Capacity),
		}
	}
	if pj.Priority < 0 || pj.Priority > 3 {
		return engine.SubscriberProfile{}, &engine.ConfigError{
			Field:  "priority",
			Reason: fmt.Sprintf("must be 0..3, got %d", pj.Priority),
		}
	}
	if len(pj.Staples)+len(pj.DislikedCategories) > maxCategories {
		return engine.SubscriberProfile{}, &engine.ConfigError{
			Field:  "staples",
			Reason: "staple and disliked categories exceed the category universe",
		}
	}

	staples := make([]engine.StapleTarget, 0, len(pj.Staples))
	seenStaple := make(map[string]bool)
	for _, st := range pj.Staples {
		if st.Category == "" {
			return engine.SubscriberProfile{}, &engine.ConfigError{Field: "staples", Reason: "category required"}
		}
		if seenStaple[st.Category] {
			return engine.SubscriberProfile{}, &engine.ConfigError{
				Field:  "staples",
				Reason: "duplicate category " + st.Category,
			}
		}
		seenStaple[st.Category] = true

		tier := engine.StapleTier(st.Tier)
		switch tier {
		case engine.TierOne, engine.TierFew, engine.TierMany:
		default:
			return engine.SubscriberProfile{}, &engine.ConfigError{
				Field:  "staples",
				Reason: fmt.Sprintf("unknown tier %q for %s", st.Tier, st.Category),
			}
		}
		staples = append(staples, engine.StapleTarget{Category: st.Category, Tier: tier})
	}

	pinned := make([]engine.PinnedItem, 0, len(pj.PinnedItems))
	for _, pi := range pj.PinnedItems {
		if pi.ID == "" {
			return engine.SubscriberProfile{}, &engine.ConfigError{Field: "pinned_items", Reason: "id required"}
		}
		if pi.Count < 1 {
			return engine.SubscriberProfile{}, &engine.ConfigError{
				Field:  "pinned_items",
				Reason: fmt.Sprintf("count must be >= 1 for %s", pi.ID),
			}
		}
		pinned = append(pinned, engine.PinnedItem{
			ID:          engine.ItemID(pi.ID),
			Category:    pi.Category,
			ProductLine: pi.ProductLine,
			Count:       pi.Count,
			Premium:     pi.Premium,
		})
	}

	return engine.SubscriberProfile{
		ID:                 engine.SubscriberID(pj.ID),
		Allergens:          pj.Allergens,
		VetoedFlavors:      pj.VetoedFlavors,
		DislikedCategories: pj.DislikedCategories,
		Staples:            staples,
		Priority:           engine.PrioritySetting(pj.Priority),
		Capacity:           pj.Capacity,
		PinnedItems:        pinned,
	}, nil
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the profile factory, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/profile.go: ProfileJSON (the create-subscriber request body)
*/
package api

import (
	"github.com/munchcrate/box-engine/engine"
	"github.com/munchcrate/box-engine/factory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubscriberDTO represents a subscriber profile in API responses.
type SubscriberDTO struct {
	ID                 string                   `json:"id"`
	Capacity           int                      `json:"capacity"`
	Priority           int                      `json:"priority"`
	Allergens          []string                 `json:"allergens"`
	VetoedFlavors      []string                 `json:"vetoed_flavors"`
	DislikedCategories []string                 `json:"disliked_categories"`
	Staples            []factory.StapleJSON     `json:"staples"`
	PinnedItems        []factory.PinnedItemJSON `json:"pinned_items"`
}

// CatalogItemDTO represents a catalog item in API responses and in the
// create-item request body.
type CatalogItemDTO struct {
	ID                string   `json:"id"`
	PrimaryCategory   string   `json:"primary_category"`
	SecondaryCategory string   `json:"secondary_category"`
	Brand             string   `json:"brand"`
	Form              string   `json:"form"`
	ProductLine       string   `json:"product_line"`
	FlavorTags        []string `json:"flavor_tags"`
	Allergens         []string `json:"allergens"`
	TotalScore        string   `json:"total_score"`
	ProteinBoost      string   `json:"protein_boost,omitempty"`
	LowCarbBoost      string   `json:"low_carb_boost,omitempty"`
	LowCalorieBoost   string   `json:"low_calorie_boost,omitempty"`
	ItemOfMonthBoost  string   `json:"item_of_month_boost,omitempty"`
	Protein           string   `json:"protein,omitempty"`
	Carbs             string   `json:"carbs,omitempty"`
	Calories          string   `json:"calories,omitempty"`
	Premium           bool     `json:"premium"`
	InStock           bool     `json:"in_stock"`
	Approved          bool     `json:"approved"`
	ReplacementOnly   bool     `json:"replacement_only"`
}

// BuildBoxRequest triggers one assembly run.
type BuildBoxRequest struct {
	SubscriberID  string `json:"subscriber_id"`
	OffCycle      bool   `json:"off_cycle,omitempty"`
	ResetBox      bool   `json:"reset_box,omitempty"`
	ResetCapacity int    `json:"reset_capacity,omitempty"`
}

// BoxLineItemDTO is one line item in a box response.
type BoxLineItemDTO struct {
	ID              string `json:"id"`
	PrimaryCategory string `json:"primary_category"`
	ProductLine     string `json:"product_line,omitempty"`
	Count           int    `json:"count"`
	Premium         bool   `json:"premium"`
}

// BoxDTO represents a persisted (or assembled-but-empty) box.
type BoxDTO struct {
	ID           string           `json:"id"`
	SubscriberID string           `json:"subscriber_id"`
	Month        int              `json:"month"`
	Capacity     int              `json:"capacity"`
	Status       string           `json:"status"`
	Popped       bool             `json:"popped"`
	Items        []BoxLineItemDTO `json:"items"`
	CreatedAt    string           `json:"created_at"`
}

// BuildBoxResponse wraps an assembly result.
type BuildBoxResponse struct {
	Box       BoxDTO `json:"box"`
	Saved     bool   `json:"saved"`
	Shortfall int    `json:"shortfall"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toBoxDTO(box engine.Box) BoxDTO {
	items := make([]BoxLineItemDTO, len(box.Items))
	for i, li := range box.Items {
		items[i] = BoxLineItemDTO{
			ID:              string(li.ID),
			PrimaryCategory: li.PrimaryCategory,
			ProductLine:     li.ProductLine,
			Count:           li.Count,
			Premium:         li.Premium,
		}
	}
	return BoxDTO{
		ID:           box.ID,
		SubscriberID: string(box.SubscriberID),
		Month:        box.Month,
		Capacity:     box.Capacity,
		Status:       string(box.Status),
		Popped:       box.Popped,
		Items:        items,
		CreatedAt:    box.CreatedAt.String(),
	}
}

func toSubscriberDTO(p engine.SubscriberProfile) SubscriberDTO {
	staples := make([]factory.StapleJSON, len(p.Staples))
	for i, st := range p.Staples {
		staples[i] = factory.StapleJSON{Category: st.Category, Tier: string(st.Tier)}
	}
	pinned := make([]factory.PinnedItemJSON, len(p.PinnedItems))
	for i, pi := range p.PinnedItems {
		pinned[i] = factory.PinnedItemJSON{
			ID:          string(pi.ID),
			Category:    pi.Category,
			ProductLine: pi.ProductLine,
			Count:       pi.Count,
			Premium:     pi.Premium,
		}
	}
	return SubscriberDTO{
		ID:                 string(p.ID),
		Capacity:           p.Capacity,
		Priority:           int(p.Priority),
		Allergens:          emptyIfNil(p.Allergens),
		VetoedFlavors:      emptyIfNil(p.VetoedFlavors),
		DislikedCategories: emptyIfNil(p.DislikedCategories),
		Staples:            staples,
		PinnedItems:        pinned,
	}
}

func toCatalogItemDTO(item engine.CatalogItem) CatalogItemDTO {
	return CatalogItemDTO{
		ID:                string(item.ID),
		PrimaryCategory:   item.PrimaryCategory,
		SecondaryCategory: item.SecondaryCategory,
		Brand:             item.Brand,
		Form:              item.Form,
		ProductLine:       item.ProductLine,
		FlavorTags:        emptyIfNil(item.FlavorTags),
		Allergens:         emptyIfNil(item.Allergens),
		TotalScore:        item.TotalScore.String(),
		ProteinBoost:      item.ProteinBoost.String(),
		LowCarbBoost:      item.LowCarbBoost.String(),
		LowCalorieBoost:   item.LowCalorieBoost.String(),
		ItemOfMonthBoost:  item.ItemOfMonthBoost.String(),
		Protein:           item.Protein.String(),
		Carbs:             item.Carbs.String(),
		Calories:          item.Calories.String(),
		Premium:           item.Premium,
		InStock:           item.InStock,
		Approved:          item.Approved,
		ReplacementOnly:   item.ReplacementOnly,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

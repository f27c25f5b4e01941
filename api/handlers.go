/*
handlers.go - HTTP API handlers for the box assembly engine

PURPOSE:
  Exposes subscriber management, catalog management, and box assembly
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Subscribers:
    POST   /api/subscribers            Create subscriber profile
    GET    /api/subscribers/{id}       Get subscriber profile
    GET    /api/subscribers/{id}/boxes Box history for subscriber

  Catalog:
    POST   /api/items                  Add catalog item
    GET    /api/items                  List catalog items

  Assembly:
    POST   /api/boxes/build            Assemble a box for a subscriber

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (sqlite in production, memory in tests)
  - ProfileFactory: JSON to SubscriberProfile conversion
  - Assembler: The box assembly pipeline

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Subscriber not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/munchcrate/box-engine/engine"
	"github.com/munchcrate/box-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need. Both the sqlite
// store and the in-memory store satisfy it.
type Store interface {
	GetProfile(ctx context.Context, id engine.SubscriberID) (engine.SubscriberProfile, error)
	SaveProfile(ctx context.Context, profile engine.SubscriberProfile) error
	SaveItem(ctx context.Context, item engine.CatalogItem) error
	ListItems(ctx context.Context) ([]engine.CatalogItem, error)
	BoxesFor(ctx context.Context, id engine.SubscriberID) ([]engine.Box, error)
	Stores() engine.Stores
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          Store
	ProfileFactory *factory.ProfileFactory
	Assembler      *engine.Assembler
	Log            *logrus.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:          store,
		ProfileFactory: factory.NewProfileFactory(),
		Assembler:      engine.NewAssembler(store.Stores(), log),
		Log:            log,
	}
}

// =============================================================================
// SUBSCRIBER HANDLERS
// =============================================================================

// CreateSubscriber creates a new subscriber profile.
func (h *Handler) CreateSubscriber(w http.ResponseWriter, r *http.Request) {
	var req factory.ProfileJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	profile, err := h.ProfileFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid subscriber configuration", err)
		return
	}

	if err := h.Store.SaveProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create subscriber", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubscriberDTO(profile))
}

// GetSubscriber returns a single subscriber profile.
func (h *Handler) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	id := engine.SubscriberID(chi.URLParam(r, "id"))

	profile, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Subscriber not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get subscriber", err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriberDTO(profile))
}

// ListSubscriberBoxes returns the box history for a subscriber,
// most recent last.
func (h *Handler) ListSubscriberBoxes(w http.ResponseWriter, r *http.Request) {
	id := engine.SubscriberID(chi.URLParam(r, "id"))

	boxes, err := h.Store.BoxesFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get boxes", err)
		return
	}

	dtos := make([]BoxDTO, len(boxes))
	for i, b := range boxes {
		dtos[i] = toBoxDTO(b)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// CreateItem adds a catalog item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CatalogItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Item id is required", nil)
		return
	}
	if req.PrimaryCategory == "" {
		writeError(w, http.StatusBadRequest, "Primary category is required", nil)
		return
	}

	item, err := fromCatalogItemDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", err)
		return
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCatalogItemDTO(item))
}

// ListItems returns all catalog items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]CatalogItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toCatalogItemDTO(item)
	}

	writeJSON(w, http.StatusOK, dtos)
}

func fromCatalogItemDTO(req CatalogItemDTO) (engine.CatalogItem, error) {
	item := engine.CatalogItem{
		ID:                engine.ItemID(req.ID),
		PrimaryCategory:   req.PrimaryCategory,
		SecondaryCategory: req.SecondaryCategory,
		Brand:             req.Brand,
		Form:              req.Form,
		ProductLine:       req.ProductLine,
		FlavorTags:        req.FlavorTags,
		Allergens:         req.Allergens,
		Premium:           req.Premium,
		InStock:           req.InStock,
		Approved:          req.Approved,
		ReplacementOnly:   req.ReplacementOnly,
	}

	fields := []struct {
		name string
		raw  string
		dest *decimal.Decimal
	}{
		{"total_score", req.TotalScore, &item.TotalScore},
		{"protein_boost", req.ProteinBoost, &item.ProteinBoost},
		{"low_carb_boost", req.LowCarbBoost, &item.LowCarbBoost},
		{"low_calorie_boost", req.LowCalorieBoost, &item.LowCalorieBoost},
		{"item_of_month_boost", req.ItemOfMonthBoost, &item.ItemOfMonthBoost},
		{"protein", req.Protein, &item.Protein},
		{"carbs", req.Carbs, &item.Carbs},
		{"calories", req.Calories, &item.Calories},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return engine.CatalogItem{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dest = d
	}

	return item, nil
}

// =============================================================================
// ASSEMBLY HANDLERS
// =============================================================================

// BuildBox runs the assembly pipeline for a subscriber.
func (h *Handler) BuildBox(w http.ResponseWriter, r *http.Request) {
	var req BuildBoxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.SubscriberID == "" {
		writeError(w, http.StatusBadRequest, "subscriber_id is required", nil)
		return
	}

	result, err := h.Assembler.Assemble(r.Context(), engine.AssembleRequest{
		SubscriberID:  engine.SubscriberID(req.SubscriberID),
		OffCycle:      req.OffCycle,
		ResetBox:      req.ResetBox,
		ResetCapacity: req.ResetCapacity,
	})
	if err != nil {
		switch {
		case engine.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Subscriber not found", err)
		case engine.IsClientError(err):
			writeError(w, http.StatusBadRequest, "Invalid assembly request", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to assemble box", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, BuildBoxResponse{
		Box:       toBoxDTO(result.Box),
		Saved:     result.Saved,
		Shortfall: result.Shortfall,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// Package store provides in-memory implementations of the engine's
// store interfaces, used by tests and local development.
package store

import (
	"context"
	"sync"

	"github.com/munchcrate/box-engine/engine"
)

// =============================================================================
// MEMORY STORE - Implements all four engine store interfaces
// =============================================================================

// Memory keeps catalog items and boxes in insertion order so every
// engine enumeration over them is deterministic.
type Memory struct {
	mu       sync.RWMutex
	profiles map[engine.SubscriberID]engine.SubscriberProfile
	items    []engine.CatalogItem
	boxes    []engine.Box

	// Injectable read failures, for exercising the engine's fail-soft
	// paths in tests.
	ProfileErr error
	CatalogErr error
	HistoryErr error
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[engine.SubscriberID]engine.SubscriberProfile),
	}
}

// =============================================================================
// PROFILE STORE
// =============================================================================

func (m *Memory) GetProfile(_ context.Context, id engine.SubscriberID) (engine.SubscriberProfile, error) {
	if m.ProfileErr != nil {
		return engine.SubscriberProfile{}, m.ProfileErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[id]
	if !ok {
		return engine.SubscriberProfile{}, engine.ErrSubscriberNotFound
	}
	return profile, nil
}

// SaveProfile inserts or replaces a profile.
func (m *Memory) SaveProfile(_ context.Context, profile engine.SubscriberProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
	return nil
}

// =============================================================================
// CATALOG STORE
// =============================================================================

// SaveItem appends a catalog item, preserving insertion order.
func (m *Memory) SaveItem(_ context.Context, item engine.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

// AddItems bulk-loads catalog items, preserving insertion order.
func (m *Memory) AddItems(_ context.Context, items ...engine.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

// ListItems returns all catalog items in insertion order.
func (m *Memory) ListItems(_ context.Context) ([]engine.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]engine.CatalogItem(nil), m.items...), nil
}

func (m *Memory) FindEligible(_ context.Context, criteria engine.FilterCriteria, limit int) ([]engine.CatalogItem, error) {
	if m.CatalogErr != nil {
		return nil, m.CatalogErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return engine.FilterItems(m.items, criteria, limit), nil
}

// =============================================================================
// HISTORY STORE
// =============================================================================

func (m *Memory) AllDeliveredIDs(_ context.Context, id engine.SubscriberID) (map[engine.ItemID]bool, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[engine.ItemID]bool)
	for _, box := range m.boxes {
		if box.SubscriberID != id {
			continue
		}
		for _, li := range box.Items {
			ids[li.ID] = true
		}
	}
	return ids, nil
}

func (m *Memory) MostRecentBoxIDs(_ context.Context, id engine.SubscriberID) (map[engine.ItemID]bool, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recent *engine.Box
	for i := range m.boxes {
		box := &m.boxes[i]
		if box.SubscriberID != id {
			continue
		}
		if recent == nil || !box.CreatedAt.Before(recent.CreatedAt) {
			recent = box
		}
	}

	ids := make(map[engine.ItemID]bool)
	if recent != nil {
		for _, li := range recent.Items {
			ids[li.ID] = true
		}
	}
	return ids, nil
}

// =============================================================================
// BOX STORE
// =============================================================================

func (m *Memory) Save(_ context.Context, box engine.Box) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes = append(m.boxes, box)
	return nil
}

// BoxesFor returns all boxes for a subscriber in creation order.
func (m *Memory) BoxesFor(_ context.Context, id engine.SubscriberID) ([]engine.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Box
	for _, box := range m.boxes {
		if box.SubscriberID == id {
			result = append(result, box)
		}
	}
	return result, nil
}

// Stores returns the memory store wired as the engine's store bundle.
func (m *Memory) Stores() engine.Stores {
	return engine.Stores{Profiles: m, Catalog: m, History: m, Boxes: m}
}

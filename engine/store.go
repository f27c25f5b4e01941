/*
store.go - Persistence interfaces for the assembly engine

PURPOSE:
  Defines the interface between the engine and its external
  collaborators. The engine never talks to a database directly; it
  consumes these four narrow interfaces, so SQLite, PostgreSQL, or
  in-memory implementations are interchangeable.

INTERFACES:
  ProfileStore: Subscriber profile lookup (NotFound is a hard abort)
  CatalogStore: Filtered, bounded catalog page
  HistoryStore: Cross-box delivery history for one subscriber
  BoxStore:     Box document persistence (the run's only write)

FAIL-SOFT CONTRACT:
  Catalog and history read failures degrade to empty results at the
  call site in the orchestrator - implementations should return their
  errors honestly and let the engine decide.

PAGE BOUND:
  FindEligible returns at most `limit` records. The store pre-ranks or
  the caller requests narrow enough batches; the engine treats the
  bound as hard.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - assemble.go: The only consumer of these interfaces
*/
package engine

import "context"

// ProfileStore retrieves subscriber profiles.
type ProfileStore interface {
	// GetProfile returns the profile for a subscriber, or
	// ErrSubscriberNotFound if absent. An absent profile aborts the run;
	// it is never conflated with an empty-result box.
	GetProfile(ctx context.Context, id SubscriberID) (SubscriberProfile, error)
}

// CatalogStore retrieves eligible catalog items.
type CatalogStore interface {
	// FindEligible returns a bounded page of items satisfying the
	// criteria, in stable catalog order. limit <= 0 means the store's
	// default page bound applies.
	FindEligible(ctx context.Context, criteria FilterCriteria, limit int) ([]CatalogItem, error)
}

// HistoryStore retrieves a subscriber's delivery history.
type HistoryStore interface {
	// AllDeliveredIDs returns the union of item ids across every box
	// ever persisted for the subscriber.
	AllDeliveredIDs(ctx context.Context, id SubscriberID) (map[ItemID]bool, error)

	// MostRecentBoxIDs returns the item ids in the single most recently
	// created box, or an empty set if the subscriber has no boxes.
	MostRecentBoxIDs(ctx context.Context, id SubscriberID) (map[ItemID]bool, error)
}

// BoxStore persists assembled boxes.
type BoxStore interface {
	// Save inserts one fully formed box document. Must be atomic; a
	// failure leaves no partial state and propagates to the caller.
	Save(ctx context.Context, box Box) error
}

// Stores bundles the four collaborators for the Assembler.
type Stores struct {
	Profiles ProfileStore
	Catalog  CatalogStore
	History  HistoryStore
	Boxes    BoxStore
}

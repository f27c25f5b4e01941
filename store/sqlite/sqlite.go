/*
Package sqlite provides a SQLite-backed implementation of the engine's
storage interfaces.

PURPOSE:
  Implements ProfileStore, CatalogStore, HistoryStore, and BoxStore on
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  subscribers:   Profile per subscriber (JSON columns for the
                 variable-shape fields: allergens, vetoed flavors,
                 dislikes, staples, pinned items)
  catalog_items: The shared catalog; rowid gives the stable catalog
                 order the engine's stable sort ties break on
  boxes:         One row per persisted box document
  box_items:     Line items per box; history queries (all delivered ids,
                 most recent box ids) derive from this table

ELIGIBILITY:
  FindEligible pushes the scalar exclusions (replacement-only, stock/
  approval for off-cycle) into SQL and finishes with the engine's
  Eligible predicate for the set-valued ones (allergens, flavor tags,
  ids, categories), so eligibility has exactly one definition.

ATOMIC SAVE:
  Save inserts the box row and its line items in one transaction;
  either the whole document lands or none of it does.

WAL MODE:
  Opened with WAL for better concurrency; sync.RWMutex guards the
  connection the way the resource ledger store does.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/munchcrate/box-engine/engine"
)

// Store implements all engine storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stores returns this store wired as the engine's store bundle.
func (s *Store) Stores() engine.Stores {
	return engine.Stores{Profiles: s, Catalog: s, History: s, Boxes: s}
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Subscriber profiles
	CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		capacity INTEGER NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		allergens_json TEXT NOT NULL DEFAULT '[]',
		vetoed_flavors_json TEXT NOT NULL DEFAULT '[]',
		disliked_json TEXT NOT NULL DEFAULT '[]',
		staples_json TEXT NOT NULL DEFAULT '[]',
		pinned_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	-- Shared catalog. rowid order is the catalog enumeration order.
	CREATE TABLE IF NOT EXISTS catalog_items (
		id TEXT PRIMARY KEY,
		primary_category TEXT NOT NULL,
		secondary_category TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		form TEXT NOT NULL DEFAULT '',
		product_line TEXT NOT NULL DEFAULT '',
		flavor_tags_json TEXT NOT NULL DEFAULT '[]',
		allergens_json TEXT NOT NULL DEFAULT '[]',
		total_score TEXT NOT NULL DEFAULT '0',
		protein_boost TEXT NOT NULL DEFAULT '0',
		low_carb_boost TEXT NOT NULL DEFAULT '0',
		low_calorie_boost TEXT NOT NULL DEFAULT '0',
		item_of_month_boost TEXT NOT NULL DEFAULT '0',
		protein TEXT NOT NULL DEFAULT '0',
		carbs TEXT NOT NULL DEFAULT '0',
		calories TEXT NOT NULL DEFAULT '0',
		premium BOOLEAN NOT NULL DEFAULT FALSE,
		in_stock BOOLEAN NOT NULL DEFAULT TRUE,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		replacement_only BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_catalog_primary_category
		ON catalog_items(primary_category);

	-- Persisted box documents
	CREATE TABLE IF NOT EXISTS boxes (
		id TEXT PRIMARY KEY,
		subscriber_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		status TEXT NOT NULL,
		popped BOOLEAN NOT NULL DEFAULT FALSE,
		original_items_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_boxes_subscriber_created
		ON boxes(subscriber_id, created_at DESC);

	-- Line items per box. History queries derive from this table.
	CREATE TABLE IF NOT EXISTS box_items (
		box_id TEXT NOT NULL REFERENCES boxes(id),
		position INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		primary_category TEXT NOT NULL,
		product_line TEXT NOT NULL DEFAULT '',
		count INTEGER NOT NULL DEFAULT 1,
		premium BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (box_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_box_items_item
		ON box_items(item_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROFILE STORE (engine.ProfileStore interface)
// =============================================================================

// GetProfile returns the profile for a subscriber.
func (s *Store) GetProfile(ctx context.Context, id engine.SubscriberID) (engine.SubscriberProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, capacity, priority, allergens_json, vetoed_flavors_json,
		       disliked_json, staples_json, pinned_json
		FROM subscribers WHERE id = ?`, id)

	var (
		profile  engine.SubscriberProfile
		priority int

		allergens, vetoed, disliked, staples, pinned string
	)
	err := row.Scan(&profile.ID, &profile.Capacity, &priority,
		&allergens, &vetoed, &disliked, &staples, &pinned)
	if err == sql.ErrNoRows {
		return engine.SubscriberProfile{}, engine.ErrSubscriberNotFound
	}
	if err != nil {
		return engine.SubscriberProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Priority = engine.PrioritySetting(priority)
	for _, col := range []struct {
		raw  string
		dest any
	}{
		{allergens, &profile.Allergens},
		{vetoed, &profile.VetoedFlavors},
		{disliked, &profile.DislikedCategories},
		{staples, &profile.Staples},
		{pinned, &profile.PinnedItems},
	} {
		if col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return engine.SubscriberProfile{}, fmt.Errorf("corrupt profile %s: %w", id, err)
		}
	}
	return profile, nil
}

// SaveProfile inserts or replaces a subscriber profile.
func (s *Store) SaveProfile(ctx context.Context, profile engine.SubscriberProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allergens, _ := json.Marshal(profile.Allergens)
	vetoed, _ := json.Marshal(profile.VetoedFlavors)
	disliked, _ := json.Marshal(profile.DislikedCategories)
	staples, _ := json.Marshal(profile.Staples)
	pinned, _ := json.Marshal(profile.PinnedItems)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO subscribers
		(id, capacity, priority, allergens_json, vetoed_flavors_json,
		 disliked_json, staples_json, pinned_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Capacity, int(profile.Priority),
		string(allergens), string(vetoed), string(disliked),
		string(staples), string(pinned),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// =============================================================================
// CATALOG STORE (engine.CatalogStore interface)
// =============================================================================

// SaveItem inserts or replaces a catalog item.
func (s *Store) SaveItem(ctx context.Context, item engine.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, _ := json.Marshal(item.FlavorTags)
	allergens, _ := json.Marshal(item.Allergens)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO catalog_items
		(id, primary_category, secondary_category, brand, form, product_line,
		 flavor_tags_json, allergens_json,
		 total_score, protein_boost, low_carb_boost, low_calorie_boost,
		 item_of_month_boost, protein, carbs, calories,
		 premium, in_stock, approved, replacement_only, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.PrimaryCategory, item.SecondaryCategory, item.Brand,
		item.Form, item.ProductLine, string(tags), string(allergens),
		item.TotalScore.String(), item.ProteinBoost.String(),
		item.LowCarbBoost.String(), item.LowCalorieBoost.String(),
		item.ItemOfMonthBoost.String(), item.Protein.String(),
		item.Carbs.String(), item.Calories.String(),
		item.Premium, item.InStock, item.Approved, item.ReplacementOnly,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save catalog item: %w", err)
	}
	return nil
}

const catalogColumns = `
	id, primary_category, secondary_category, brand, form, product_line,
	flavor_tags_json, allergens_json,
	total_score, protein_boost, low_carb_boost, low_calorie_boost,
	item_of_month_boost, protein, carbs, calories,
	premium, in_stock, approved, replacement_only`

// ListItems returns the whole catalog in catalog order.
func (s *Store) ListItems(ctx context.Context) ([]engine.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// FindEligible returns a bounded page of items satisfying the criteria.
func (s *Store) FindEligible(ctx context.Context, criteria engine.FilterCriteria, limit int) ([]engine.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE replacement_only = FALSE`
	if criteria.OffCycle {
		query += ` AND (in_stock = TRUE OR approved = TRUE)`
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	return engine.FilterItems(items, criteria, limit), nil
}

func scanItems(rows *sql.Rows) ([]engine.CatalogItem, error) {
	var items []engine.CatalogItem
	for rows.Next() {
		var (
			item            engine.CatalogItem
			tags, allergens string

			total, pBoost, cBoost, calBoost, iomBoost, prot, carbs, cals string
		)
		err := rows.Scan(&item.ID, &item.PrimaryCategory, &item.SecondaryCategory,
			&item.Brand, &item.Form, &item.ProductLine, &tags, &allergens,
			&total, &pBoost, &cBoost, &calBoost, &iomBoost, &prot, &carbs, &cals,
			&item.Premium, &item.InStock, &item.Approved, &item.ReplacementOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}

		json.Unmarshal([]byte(tags), &item.FlavorTags)
		json.Unmarshal([]byte(allergens), &item.Allergens)
		item.TotalScore = parseDecimal(total)
		item.ProteinBoost = parseDecimal(pBoost)
		item.LowCarbBoost = parseDecimal(cBoost)
		item.LowCalorieBoost = parseDecimal(calBoost)
		item.ItemOfMonthBoost = parseDecimal(iomBoost)
		item.Protein = parseDecimal(prot)
		item.Carbs = parseDecimal(carbs)
		item.Calories = parseDecimal(cals)

		items = append(items, item)
	}
	return items, rows.Err()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// HISTORY STORE (engine.HistoryStore interface)
// =============================================================================

// AllDeliveredIDs returns the union of item ids across every box ever
// persisted for the subscriber.
func (s *Store) AllDeliveredIDs(ctx context.Context, id engine.SubscriberID) (map[engine.ItemID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT bi.item_id
		FROM box_items bi JOIN boxes b ON b.id = bi.box_id
		WHERE b.subscriber_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanIDSet(rows)
}

// MostRecentBoxIDs returns the item ids in the most recently created box.
func (s *Store) MostRecentBoxIDs(ctx context.Context, id engine.SubscriberID) (map[engine.ItemID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT bi.item_id
		FROM box_items bi
		WHERE bi.box_id = (
			SELECT b.id FROM boxes b
			WHERE b.subscriber_id = ?
			ORDER BY b.created_at DESC, b.rowid DESC
			LIMIT 1
		)`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent box: %w", err)
	}
	defer rows.Close()

	return scanIDSet(rows)
}

func scanIDSet(rows *sql.Rows) (map[engine.ItemID]bool, error) {
	ids := make(map[engine.ItemID]bool)
	for rows.Next() {
		var id engine.ItemID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// =============================================================================
// BOX STORE (engine.BoxStore interface)
// =============================================================================

// Save inserts one box document atomically (box row + line items).
func (s *Store) Save(ctx context.Context, box engine.Box) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	original, _ := json.Marshal(box.OriginalItems)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boxes
		(id, subscriber_id, month, capacity, status, popped, original_items_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		box.ID, box.SubscriberID, box.Month, box.Capacity, string(box.Status),
		box.Popped, string(original), box.CreatedAt.Time.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert box: %w", err)
	}

	for i, li := range box.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO box_items
			(box_id, position, item_id, primary_category, product_line, count, premium)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			box.ID, i, li.ID, li.PrimaryCategory, li.ProductLine, li.Count, li.Premium,
		)
		if err != nil {
			return fmt.Errorf("failed to insert box item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit box: %w", err)
	}
	return nil
}

// BoxesFor returns all boxes for a subscriber, oldest first.
func (s *Store) BoxesFor(ctx context.Context, id engine.SubscriberID) ([]engine.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subscriber_id, month, capacity, status, popped,
		       original_items_json, created_at
		FROM boxes WHERE subscriber_id = ?
		ORDER BY created_at, rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	defer rows.Close()

	var boxes []engine.Box
	for rows.Next() {
		var (
			box                         engine.Box
			status, original, createdAt string
		)
		err := rows.Scan(&box.ID, &box.SubscriberID, &box.Month, &box.Capacity,
			&status, &box.Popped, &original, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan box: %w", err)
		}
		box.Status = engine.BoxStatus(status)
		json.Unmarshal([]byte(original), &box.OriginalItems)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			box.CreatedAt = engine.TimePointAt(t)
		}
		boxes = append(boxes, box)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range boxes {
		items, err := s.boxItems(ctx, boxes[i].ID)
		if err != nil {
			return nil, err
		}
		boxes[i].Items = items
	}
	return boxes, nil
}

func (s *Store) boxItems(ctx context.Context, boxID string) ([]engine.BoxLineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, primary_category, product_line, count, premium
		FROM box_items WHERE box_id = ? ORDER BY position`, boxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list box items: %w", err)
	}
	defer rows.Close()

	var items []engine.BoxLineItem
	for rows.Next() {
		var li engine.BoxLineItem
		if err := rows.Scan(&li.ID, &li.PrimaryCategory, &li.ProductLine, &li.Count, &li.Premium); err != nil {
			return nil, fmt.Errorf("failed to scan box item: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

/*
errors.go - Centralized error types for the assembly engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine distinguishes hard failures (surfaced to the caller) from
  soft degradation (logged, run continues):

  HARD:
    - ErrSubscriberNotFound:   profile absent; the run aborts
    - ErrInvalidConfiguration: malformed profile or request inputs
    - persistence failures:    returned as-is from BoxStore.Save

  SOFT (never returned as errors):
    - store read failures:     collaborator treated as empty, logged
    - inventory shortage:      box saved under-filled, logged

USAGE:
  if engine.IsNotFound(err) { ... 404 ... }
  if engine.IsClientError(err) { ... 400 ... }

SEE ALSO:
  - assemble.go: Where the taxonomy is applied
  - api/handlers.go: HTTP status mapping
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSubscriberNotFound is returned when the profile store has no
	// record for the requested subscriber. Distinct from an empty box.
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrInvalidConfiguration is returned when profile or request inputs
	// cannot produce a well-defined run (bad staple tier, non-positive
	// capacity, staples+dislikes exceeding the category universe).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBoxNotFound is returned when a requested box document is absent.
	ErrBoxNotFound = errors.New("box not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError describes which input made the run configuration invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubscriberNotFound) || errors.Is(err, ErrBoxNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

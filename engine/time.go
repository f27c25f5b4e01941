package engine

import (
	"time"
)

// =============================================================================
// TIME POINT - Concrete time abstraction for box timestamps
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func TimePointAt(t time.Time) TimePoint {
	return TimePoint{Time: t.UTC()}
}

func Now() TimePoint {
	return TimePointAt(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.Time.Before(other.Time) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.Time.After(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.Time.Equal(other.Time) }
func (tp TimePoint) IsZero() bool                { return tp.Time.IsZero() }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Unix() int64       { return tp.Time.Unix() }

func (tp TimePoint) String() string {
	return tp.Time.Format(time.RFC3339)
}

// =============================================================================
// CLOCK - Injected time source so assembly runs are testable
// =============================================================================

// Clock supplies the current time. The Assembler takes a Clock so tests
// can pin month codes and generated box ids.
type Clock interface {
	Now() TimePoint
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() TimePoint { return Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At TimePoint
}

func (f FixedClock) Now() TimePoint { return f.At }

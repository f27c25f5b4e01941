/*
boxdoc.go - Box document construction

PURPOSE:
  Builds the persisted box document from an assembly result: target
  month code, generated id, status, and the original-items snapshot.

MONTH CODE:
  A 4-digit MMYY integer (October 2026 -> 1026, January 2027 -> 127 as
  an int, "0127" as a code). Normal runs target next month; off-cycle
  runs target the month after. The code is computed from year and month
  alone; the run's day-of-month never shifts the target.

BOX ID:
  Deterministic given the clock: month code, capacity, subscriber id,
  and the creation timestamp.

SEE ALSO:
  - assemble.go: Calls BuildBoxDocument after the pipeline completes
*/
package engine

import (
	"fmt"
)

// Month offsets from the current month for the box's target month.
const (
	monthOffsetNormal   = 1
	monthOffsetOffCycle = 2
)

// TargetMonthCode computes the MMYY month code for a box created at
// `now`. Off-cycle boxes target one month further out.
//
// The arithmetic runs on a year*12+month index, not on the full date:
// adding months to a Jan 31 date would normalize into March whenever
// the target month is shorter, and February could never be targeted
// from an end-of-month run.
func TargetMonthCode(now TimePoint, offCycle bool) int {
	offset := monthOffsetNormal
	if offCycle {
		offset = monthOffsetOffCycle
	}
	months := now.Year()*12 + int(now.Month()) - 1 + offset
	return (months%12+1)*100 + (months/12)%100
}

// boxID generates the deterministic document id.
func boxID(monthCode, capacity int, subscriberID SubscriberID, now TimePoint) string {
	return fmt.Sprintf("box-%04d-%d-%s-%d", monthCode, capacity, subscriberID, now.Unix())
}

// BuildBoxDocument assembles the persistable document from the run's
// line items. Off-cycle boxes are locked; normal boxes stay
// customizable. OriginalItems snapshots Items at creation.
func BuildBoxDocument(subscriberID SubscriberID, capacity int, items []BoxLineItem, offCycle bool, now TimePoint) Box {
	monthCode := TargetMonthCode(now, offCycle)

	status := StatusCustomize
	if offCycle {
		status = StatusLocked
	}

	original := make([]BoxLineItem, len(items))
	copy(original, items)

	return Box{
		ID:            boxID(monthCode, capacity, subscriberID, now),
		SubscriberID:  subscriberID,
		Month:         monthCode,
		Capacity:      capacity,
		Status:        status,
		Items:         items,
		OriginalItems: original,
		Popped:        false,
		CreatedAt:     now,
	}
}

package booking

import (
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has positive length. Zero-length and
// inverted intervals are rejected at admission.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two half-open intervals intersect:
// a.End > b.Start AND b.End > a.Start. Back-to-back intervals sharing a
// boundary instant do not overlap.
func Overlaps(a, b Interval) bool {
	return a.End.After(b.Start) && b.End.After(a.Start)
}

// FindConflict returns the first confirmed reservation whose interval
// overlaps the candidate. Cancelled reservations never block a booking.
// Callers typically pass a superset fetched with start < candidate.End; the
// exact test here closes the predicate.
func FindConflict(existing []persistence.Reservation, candidate Interval) (persistence.Reservation, bool) {
	for _, res := range existing {
		if res.Status != persistence.StatusConfirmed {
			continue
		}
		if Overlaps(Interval{Start: res.Start, End: res.End}, candidate) {
			return res, true
		}
	}
	return persistence.Reservation{}, false
}

// Overlapping returns every pair-breaking confirmed reservation for the
// candidate interval. Used by diagnostics; admission only needs FindConflict.
func Overlapping(existing []persistence.Reservation, candidate Interval) []persistence.Reservation {
	var hits []persistence.Reservation
	for _, res := range existing {
		if res.Status != persistence.StatusConfirmed {
			continue
		}
		if Overlaps(Interval{Start: res.Start, End: res.End}, candidate) {
			hits = append(hits, res)
		}
	}
	return hits
}

package booking

import (
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// Partitioned splits a user's reservations for display.
type Partitioned struct {
	Upcoming []persistence.Reservation
	Past     []persistence.Reservation
}

// Partition splits reservations into upcoming and past relative to now.
// Upcoming keeps confirmed reservations that have not ended yet (end >= now);
// everything else, including every cancelled reservation, lands in past.
// Both halves preserve the start-ascending order of the input.
func Partition(all []persistence.Reservation, now time.Time) Partitioned {
	var out Partitioned
	for _, res := range all {
		if res.Status == persistence.StatusConfirmed && !res.End.Before(now) {
			out.Upcoming = append(out.Upcoming, res)
			continue
		}
		out.Past = append(out.Past, res)
	}
	return out
}

// FormatRange renders an interval for list rows. Same-calendar-day intervals
// read "Fri Sep 12 · 9:00 AM - 10:30 AM"; intervals crossing midnight switch
// to an arrow and repeat the end date: "Fri Sep 12 · 11:00 PM → Sat Sep 13 ·
// 1:00 AM". The end is rendered in the start's location so the day comparison
// is stable.
func FormatRange(start, end time.Time) string {
	end = end.In(start.Location())

	dayLabel := start.Format("Mon Jan 2")
	startLabel := start.Format("3:04 PM")
	endLabel := end.Format("3:04 PM")

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return dayLabel + " · " + startLabel + " - " + endLabel
	}
	return dayLabel + " · " + startLabel + " → " + end.Format("Mon Jan 2") + " · " + endLabel
}

package booking

import (
	"testing"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

func TestPartition(t *testing.T) {
	now := time.Date(2025, time.September, 12, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	ended := confirmed("res-ended", yesterday.Add(-time.Hour), yesterday)
	future := confirmed("res-future", tomorrow, tomorrow.Add(time.Hour))
	cancelled := confirmed("res-cancelled", tomorrow, tomorrow.Add(time.Hour))
	cancelled.Status = persistence.StatusCancelled

	out := Partition([]persistence.Reservation{ended, future, cancelled}, now)

	if len(out.Upcoming) != 1 || out.Upcoming[0].ID != "res-future" {
		t.Fatalf("expected only res-future upcoming, got %+v", out.Upcoming)
	}
	if len(out.Past) != 2 {
		t.Fatalf("expected 2 past entries, got %d", len(out.Past))
	}
	if out.Past[0].ID != "res-ended" || out.Past[1].ID != "res-cancelled" {
		t.Fatalf("past order not preserved: %s, %s", out.Past[0].ID, out.Past[1].ID)
	}

	t.Run("reservation ending exactly now is upcoming", func(t *testing.T) {
		edge := confirmed("res-edge", now.Add(-time.Hour), now)
		out := Partition([]persistence.Reservation{edge}, now)
		if len(out.Upcoming) != 1 {
			t.Fatalf("end == now should count as upcoming, got past=%+v", out.Past)
		}
	})
}

func TestFormatRange(t *testing.T) {
	t.Run("same day uses a dash", func(t *testing.T) {
		start := time.Date(2025, time.September, 12, 9, 0, 0, 0, time.UTC)
		end := time.Date(2025, time.September, 12, 10, 30, 0, 0, time.UTC)

		got := FormatRange(start, end)
		want := "Fri Sep 12 · 9:00 AM - 10:30 AM"
		if got != want {
			t.Fatalf("FormatRange = %q, want %q", got, want)
		}
	})

	t.Run("crossing midnight uses an arrow and repeats the date", func(t *testing.T) {
		start := time.Date(2025, time.September, 12, 23, 0, 0, 0, time.UTC)
		end := time.Date(2025, time.September, 13, 1, 0, 0, 0, time.UTC)

		got := FormatRange(start, end)
		want := "Fri Sep 12 · 11:00 PM → Sat Sep 13 · 1:00 AM"
		if got != want {
			t.Fatalf("FormatRange = %q, want %q", got, want)
		}
	})

	t.Run("end is compared in the start's location", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*60*60)
		start := time.Date(2025, time.September, 12, 20, 0, 0, 0, loc)
		// 02:00 UTC next day is 21:00 same day in the start's zone.
		end := time.Date(2025, time.September, 13, 2, 0, 0, 0, time.UTC)

		got := FormatRange(start, end)
		want := "Fri Sep 12 · 8:00 PM - 9:00 PM"
		if got != want {
			t.Fatalf("FormatRange = %q, want %q", got, want)
		}
	})
}

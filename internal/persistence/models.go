package persistence

import "time"

// OpeningHours describes the advisory open window for a room as "HH:MM"
// display strings. Admission never enforces it.
type OpeningHours struct {
	Start string
	End   string
}

// Location pins a room on a map. Purely presentational.
type Location struct {
	Lat   float64
	Lng   float64
	Label string
}

// Room represents a bookable space catalog entry.
type Room struct {
	ID           string
	Name         string
	Building     string
	Floor        *string
	Description  *string
	ImageURL     *string
	Capacity     int
	Amenities    []string
	OpeningHours *OpeningHours
	Location     *Location
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReservationStatus enumerates the lifecycle states of a reservation.
type ReservationStatus string

const (
	// StatusConfirmed marks a reservation that holds its time slot.
	StatusConfirmed ReservationStatus = "confirmed"
	// StatusCancelled marks a soft-deleted reservation kept for history.
	// Cancelled reservations never transition back to confirmed.
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a claim on a room for a half-open interval
// [Start, End). RoomName, Building and UserEmail are denormalized copies
// captured at creation time; they are never re-synced afterwards.
type Reservation struct {
	ID          string
	RoomID      string
	UserID      string
	UserEmail   *string
	RoomName    string
	Building    string
	Start       time.Time
	End         time.Time
	Purpose     *string
	PhotoURL    *string
	Status      ReservationStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

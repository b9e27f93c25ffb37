package application

import "time"

// Identity is the signed-in principal invoking an operation. It is passed
// explicitly rather than read from ambient state so the services stay
// testable without a live identity provider. Email may be empty.
type Identity struct {
	ID    string
	Email string
}

// Present reports whether a signed-in identity was supplied.
func (id Identity) Present() bool {
	return id.ID != ""
}

// OpeningHoursInput carries advisory open hours as "HH:MM" strings.
type OpeningHoursInput struct {
	Start string
	End   string
}

// LocationInput carries presentational coordinates for a room.
type LocationInput struct {
	Lat   float64
	Lng   float64
	Label string
}

// RoomInput captures caller provided room fields for creation. Optional
// string fields left empty are stored as absent.
type RoomInput struct {
	Name         string
	Building     string
	Floor        string
	Description  string
	ImageURL     string
	Capacity     int
	Amenities    []string
	OpeningHours *OpeningHoursInput
	Location     *LocationInput
}

// RoomUpdateInput captures a partial room update. Nil pointer fields are
// left unchanged; a pointer to an empty (after trimming) string clears the
// field. Name and building cannot be cleared, only replaced. An invalid or
// negative capacity is dropped rather than coerced.
type RoomUpdateInput struct {
	Name         *string
	Building     *string
	Floor        *string
	Description  *string
	ImageURL     *string
	Capacity     *int
	Amenities    []string
	OpeningHours *OpeningHoursInput
	Location     *LocationInput
	// ClearLocation removes the stored location; Location wins if both set.
	ClearLocation bool
}

// CreateRoomParams wraps the data required to create a room. ID is optional;
// when empty the service generates one.
type CreateRoomParams struct {
	ID    string
	Input RoomInput
}

// ReservationInput captures the caller's requested booking interval.
type ReservationInput struct {
	Start   time.Time
	End     time.Time
	Purpose string
}

// CreateReservationParams wraps the data required to admit a reservation.
type CreateReservationParams struct {
	RoomID   string
	Identity Identity
	Input    ReservationInput
}

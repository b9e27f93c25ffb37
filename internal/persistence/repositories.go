package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	// ListRooms returns every room ordered by name ascending, id as tiebreak.
	ListRooms(ctx context.Context) ([]Room, error)
	// DeleteRoom removes the room and all of its reservations in one
	// transaction. Either both are gone afterwards or neither is touched.
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. Zero-value fields are
// ignored. Start bounds apply to the reservation's Start instant as the
// half-open window [StartsAtOrAfter, StartsBefore).
type ReservationFilter struct {
	RoomID          string
	UserID          string
	StartsAtOrAfter *time.Time
	StartsBefore    *time.Time
	Status          *ReservationStatus
}

// ReservationRepository stores reservations scoped under their owning room.
type ReservationRepository interface {
	// AdmitReservation inserts the reservation unless its interval overlaps a
	// confirmed reservation for the same room. The overlap check and the
	// insert execute inside a single write transaction, so two concurrent
	// admissions for one room cannot both pass the check. Returns ErrConflict
	// on overlap with no partial state written.
	AdmitReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, roomID, id string) (Reservation, error)
	// ListReservations returns matching reservations ordered by start
	// ascending, id as tiebreak.
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	// CancelReservation flips status to cancelled and stamps cancelledAt.
	// Returns ErrNotFound for an unknown id and ErrAlreadyCancelled when the
	// reservation was cancelled before; cancelledAt is never overwritten.
	CancelReservation(ctx context.Context, roomID, id string, cancelledAt time.Time) (Reservation, error)
	// SetReservationPhotoURL attaches the upload collaborator's URL after
	// creation. The URL is stored verbatim.
	SetReservationPhotoURL(ctx context.Context, roomID, id, photoURL string) (Reservation, error)
}

// RoomWatcher delivers the full ordered room list on every change.
type RoomWatcher interface {
	WatchRooms(ctx context.Context, onChange func([]Room), onError func(error)) (func(), error)
}

// ReservationWatcher delivers the full matching reservation set on every
// change to the underlying data. Snapshots, not deltas: result sets are
// bounded by the filter window so redelivery stays cheap.
type ReservationWatcher interface {
	WatchReservations(ctx context.Context, filter ReservationFilter, onChange func([]Reservation), onError func(error)) (func(), error)
}

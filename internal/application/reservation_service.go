package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/booking"
	"github.com/example/roomreserve/internal/persistence"
)

// ReservationStore captures the persistence operations needed by the
// reservation service.
type ReservationStore interface {
	AdmitReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error)
	GetReservation(ctx context.Context, roomID, id string) (persistence.Reservation, error)
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
	CancelReservation(ctx context.Context, roomID, id string, cancelledAt time.Time) (persistence.Reservation, error)
	SetReservationPhotoURL(ctx context.Context, roomID, id, photoURL string) (persistence.Reservation, error)
	WatchReservations(ctx context.Context, filter persistence.ReservationFilter, onChange func([]persistence.Reservation), onError func(error)) (func(), error)
}

// RoomGetter resolves the room a reservation denormalizes from.
type RoomGetter interface {
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
}

// MetricsRecorder counts booking outcomes. Implementations must tolerate
// concurrent calls; a nil recorder disables recording.
type MetricsRecorder interface {
	ReservationAdmitted()
	ConflictRejected()
	ReservationCancelled()
}

// ReservationService orchestrates admission, cancellation, and live views
// of reservations.
type ReservationService struct {
	reservations ReservationStore
	rooms        RoomGetter
	metrics      MetricsRecorder
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided
// dependencies.
func NewReservationService(reservations ReservationStore, rooms RoomGetter, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a
// specified logger.
func NewReservationServiceWithLogger(reservations ReservationStore, rooms RoomGetter, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// WithMetrics attaches a metrics recorder and returns the service for
// chaining during wiring.
func (s *ReservationService) WithMetrics(metrics MetricsRecorder) *ReservationService {
	if s != nil {
		s.metrics = metrics
	}
	return s
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates the request, snapshots the room's display
// fields onto the reservation, and admits it unless it overlaps a confirmed
// reservation for the same room.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"room_id", params.RoomID,
		"user_id", params.Identity.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if !params.Identity.Present() {
		err = ErrUnauthenticated
		return
	}

	vErr := validateReservationInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room persistence.Room
	room, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	reservation = persistence.Reservation{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		UserID:    params.Identity.ID,
		UserEmail: optionalString(params.Identity.Email),
		RoomName:  room.Name,
		Building:  room.Building,
		Start:     params.Input.Start,
		End:       params.Input.End,
		Purpose:   optionalString(params.Input.Purpose),
		Status:    persistence.StatusConfirmed,
		CreatedAt: s.now(),
	}

	var admitted persistence.Reservation
	admitted, err = s.reservations.AdmitReservation(ctx, reservation)
	if err != nil {
		err = mapReservationRepoError(err)
		if s.metrics != nil {
			var cErr *ConflictError
			if errors.As(err, &cErr) {
				s.metrics.ConflictRejected()
			}
		}
		reservation = persistence.Reservation{}
		return
	}

	reservation = admitted
	if s.metrics != nil {
		s.metrics.ReservationAdmitted()
	}
	return
}

// CancelReservation marks the reservation cancelled. The record stays in
// place so booking history survives; its slot frees up immediately.
func (s *ReservationService) CancelReservation(ctx context.Context, roomID, reservationID string) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"room_id", roomID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	reservation, err = s.reservations.CancelReservation(ctx, roomID, reservationID, s.now())
	if err != nil {
		err = mapReservationRepoError(err)
		reservation = persistence.Reservation{}
		return
	}

	if s.metrics != nil {
		s.metrics.ReservationCancelled()
	}
	return
}

// GetReservation fetches a single reservation under its room.
func (s *ReservationService) GetReservation(ctx context.Context, roomID, reservationID string) (persistence.Reservation, error) {
	if s == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("reservation store not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, roomID, reservationID)
	if err != nil {
		return persistence.Reservation{}, mapReservationRepoError(err)
	}
	return reservation, nil
}

// ListRoomReservations returns reservations for a room whose start falls in
// the half-open window [from, to), ordered by start ascending.
func (s *ReservationService) ListRoomReservations(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}
	if vErr := validateWindow(from, to); vErr.HasErrors() {
		return nil, vErr
	}

	filter := persistence.ReservationFilter{
		RoomID:          roomID,
		StartsAtOrAfter: &from,
		StartsBefore:    &to,
	}
	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	return reservations, nil
}

// WatchRoomReservations subscribes to live snapshots of a room's
// reservations inside the half-open window [from, to).
func (s *ReservationService) WatchRoomReservations(ctx context.Context, roomID string, from, to time.Time, onChange func([]persistence.Reservation), onError func(error)) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}
	if vErr := validateWindow(from, to); vErr.HasErrors() {
		return nil, vErr
	}

	filter := persistence.ReservationFilter{
		RoomID:          roomID,
		StartsAtOrAfter: &from,
		StartsBefore:    &to,
	}
	return s.reservations.WatchReservations(ctx, filter, onChange, onError)
}

// ListUserReservations returns every reservation the identity has made
// across all rooms, cancelled ones included, ordered by start ascending.
func (s *ReservationService) ListUserReservations(ctx context.Context, identity Identity) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}
	if !identity.Present() {
		return nil, ErrUnauthenticated
	}

	reservations, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{UserID: identity.ID})
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	return reservations, nil
}

// UserSchedule splits the identity's reservations into upcoming and past
// relative to the service clock. Cancelled reservations always land in past.
func (s *ReservationService) UserSchedule(ctx context.Context, identity Identity) (booking.Partitioned, error) {
	all, err := s.ListUserReservations(ctx, identity)
	if err != nil {
		return booking.Partitioned{}, err
	}
	return booking.Partition(all, s.now()), nil
}

// WatchUserReservations subscribes to live snapshots of all reservations
// owned by the identity.
func (s *ReservationService) WatchUserReservations(ctx context.Context, identity Identity, onChange func([]persistence.Reservation), onError func(error)) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}
	if !identity.Present() {
		return nil, ErrUnauthenticated
	}

	return s.reservations.WatchReservations(ctx, persistence.ReservationFilter{UserID: identity.ID}, onChange, onError)
}

// AttachPhoto records the uploaded photo's URL on an existing reservation.
func (s *ReservationService) AttachPhoto(ctx context.Context, roomID, reservationID, photoURL string) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "AttachPhoto",
		"room_id", roomID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to attach photo", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "photo attached")
	}()

	trimmed := strings.TrimSpace(photoURL)
	if trimmed == "" {
		vErr := &ValidationError{}
		vErr.add("photoUrl", "photo URL is required")
		err = vErr
		return
	}

	reservation, err = s.reservations.SetReservationPhotoURL(ctx, roomID, reservationID, trimmed)
	if err != nil {
		err = mapReservationRepoError(err)
		reservation = persistence.Reservation{}
		return
	}
	return
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Start.IsZero() {
		vErr.add("start", "start time is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end time is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		vErr.add("end", "end time must be after start time")
	}

	return vErr
}

func validateWindow(from, to time.Time) *ValidationError {
	vErr := &ValidationError{}

	if from.IsZero() {
		vErr.add("from", "window start is required")
	}
	if to.IsZero() {
		vErr.add("to", "window end is required")
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		vErr.add("to", "window end must be after window start")
	}

	return vErr
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrAlreadyCancelled) {
		return ErrAlreadyCancelled
	}
	if errors.Is(err, persistence.ErrConflict) {
		return &ConflictError{Message: "This room is already booked for the selected time."}
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("end", "end time must be after start time")
		return vErr
	}
	return err
}

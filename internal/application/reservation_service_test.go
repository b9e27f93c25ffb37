package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/testfixtures"
)

type reservationStoreStub struct {
	admitErr error
	admitted persistence.Reservation

	getReservation persistence.Reservation
	getErr         error

	list    []persistence.Reservation
	listErr error
	filter  persistence.ReservationFilter

	cancelErr error
	cancelled persistence.Reservation
	cancelAt  time.Time

	photoErr error
	photoURL string

	watchFilter persistence.ReservationFilter
	watchCalls  int
}

func (r *reservationStoreStub) AdmitReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	if r.admitErr != nil {
		return persistence.Reservation{}, r.admitErr
	}
	r.admitted = reservation
	return reservation, nil
}

func (r *reservationStoreStub) GetReservation(ctx context.Context, roomID, id string) (persistence.Reservation, error) {
	if r.getErr != nil {
		return persistence.Reservation{}, r.getErr
	}
	return r.getReservation, nil
}

func (r *reservationStoreStub) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.filter = filter
	out := make([]persistence.Reservation, len(r.list))
	copy(out, r.list)
	return out, nil
}

func (r *reservationStoreStub) CancelReservation(ctx context.Context, roomID, id string, cancelledAt time.Time) (persistence.Reservation, error) {
	if r.cancelErr != nil {
		return persistence.Reservation{}, r.cancelErr
	}
	r.cancelAt = cancelledAt
	res := r.cancelled
	if res.ID == "" {
		res = persistence.Reservation{ID: id, RoomID: roomID, Status: persistence.StatusCancelled, CancelledAt: &cancelledAt}
	}
	return res, nil
}

func (r *reservationStoreStub) SetReservationPhotoURL(ctx context.Context, roomID, id, photoURL string) (persistence.Reservation, error) {
	if r.photoErr != nil {
		return persistence.Reservation{}, r.photoErr
	}
	r.photoURL = photoURL
	return persistence.Reservation{ID: id, RoomID: roomID, PhotoURL: &photoURL}, nil
}

func (r *reservationStoreStub) WatchReservations(ctx context.Context, filter persistence.ReservationFilter, onChange func([]persistence.Reservation), onError func(error)) (func(), error) {
	r.watchCalls++
	r.watchFilter = filter
	onChange(r.list)
	return func() {}, nil
}

type roomGetterStub struct {
	room persistence.Room
	err  error
}

func (r *roomGetterStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if r.err != nil {
		return persistence.Room{}, r.err
	}
	return r.room, nil
}

type metricsStub struct {
	admitted  int
	rejected  int
	cancelled int
}

func (m *metricsStub) ReservationAdmitted() { m.admitted++ }

func (m *metricsStub) ConflictRejected() { m.rejected++ }

func (m *metricsStub) ReservationCancelled() { m.cancelled++ }

func testRoom() persistence.Room {
	return persistence.Room{ID: "room-1", Name: "Aurora", Building: "North Tower"}
}

func TestReservationService_CreateReservation(t *testing.T) {
	now := time.Date(2025, time.September, 3, 9, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	end := start.Add(time.Hour)
	identity := Identity{ID: "user-1", Email: "user@example.com"}

	newService := func(store *reservationStoreStub, rooms *roomGetterStub) *ReservationService {
		return NewReservationService(store, rooms, testfixtures.NewIDGenerator("res").NextFunc(), fixedClock(now))
	}

	t.Run("requires a signed-in identity", func(t *testing.T) {
		svc := newService(&reservationStoreStub{}, &roomGetterStub{room: testRoom()})

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID: "room-1",
			Input:  ReservationInput{Start: start, End: end},
		})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("rejects an inverted interval", func(t *testing.T) {
		svc := newService(&reservationStoreStub{}, &roomGetterStub{room: testRoom()})

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: end, End: start},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["end"]; !ok {
			t.Fatalf("expected end validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects a zero-length interval", func(t *testing.T) {
		svc := newService(&reservationStoreStub{}, &roomGetterStub{room: testRoom()})

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: start},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("snapshots room and identity fields", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := newService(store, &roomGetterStub{room: testRoom()})

		res, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: end, Purpose: "  Standup  "},
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}

		if res.ID != "res-1" || res.RoomID != "room-1" || res.UserID != "user-1" {
			t.Fatalf("unexpected identifiers: %+v", res)
		}
		if res.RoomName != "Aurora" || res.Building != "North Tower" {
			t.Fatalf("expected denormalized room fields, got %+v", res)
		}
		if res.UserEmail == nil || *res.UserEmail != "user@example.com" {
			t.Fatalf("expected user email snapshot, got %v", res.UserEmail)
		}
		if res.Purpose == nil || *res.Purpose != "Standup" {
			t.Fatalf("expected trimmed purpose, got %v", res.Purpose)
		}
		if res.Status != persistence.StatusConfirmed {
			t.Fatalf("expected confirmed status, got %q", res.Status)
		}
		if !res.CreatedAt.Equal(now) {
			t.Fatalf("expected CreatedAt from clock, got %v", res.CreatedAt)
		}
		if store.admitted.ID != "res-1" {
			t.Fatalf("expected admission forwarded, got %+v", store.admitted)
		}
	})

	t.Run("drops a blank purpose", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := newService(store, &roomGetterStub{room: testRoom()})

		res, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: end, Purpose: "   "},
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if res.Purpose != nil {
			t.Fatalf("expected blank purpose dropped, got %v", *res.Purpose)
		}
	})

	t.Run("maps an unknown room", func(t *testing.T) {
		svc := newService(&reservationStoreStub{}, &roomGetterStub{err: persistence.ErrNotFound})

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "missing",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: end},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("surfaces overlaps as conflict errors and counts them", func(t *testing.T) {
		store := &reservationStoreStub{admitErr: persistence.ErrConflict}
		metrics := &metricsStub{}
		svc := newService(store, &roomGetterStub{room: testRoom()}).WithMetrics(metrics)

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: end},
		})

		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.Message == "" {
			t.Fatal("expected a user-facing conflict message")
		}
		if metrics.rejected != 1 || metrics.admitted != 0 {
			t.Fatalf("expected one rejection counted, got %+v", metrics)
		}
	})

	t.Run("counts admissions", func(t *testing.T) {
		metrics := &metricsStub{}
		svc := newService(&reservationStoreStub{}, &roomGetterStub{room: testRoom()}).WithMetrics(metrics)

		if _, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			RoomID:   "room-1",
			Identity: identity,
			Input:    ReservationInput{Start: start, End: end},
		}); err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if metrics.admitted != 1 {
			t.Fatalf("expected one admission counted, got %+v", metrics)
		}
	})
}

func TestReservationService_CancelReservation(t *testing.T) {
	now := time.Date(2025, time.September, 3, 12, 0, 0, 0, time.UTC)

	t.Run("stamps the cancellation with the service clock", func(t *testing.T) {
		store := &reservationStoreStub{}
		metrics := &metricsStub{}
		svc := NewReservationService(store, nil, nil, fixedClock(now)).WithMetrics(metrics)

		res, err := svc.CancelReservation(context.Background(), "room-1", "res-1")
		if err != nil {
			t.Fatalf("CancelReservation: %v", err)
		}
		if !store.cancelAt.Equal(now) {
			t.Fatalf("expected cancellation stamped %v, got %v", now, store.cancelAt)
		}
		if res.Status != persistence.StatusCancelled {
			t.Fatalf("expected cancelled status, got %q", res.Status)
		}
		if metrics.cancelled != 1 {
			t.Fatalf("expected one cancellation counted, got %+v", metrics)
		}
	})

	t.Run("maps double cancellation", func(t *testing.T) {
		store := &reservationStoreStub{cancelErr: persistence.ErrAlreadyCancelled}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		_, err := svc.CancelReservation(context.Background(), "room-1", "res-1")
		if !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
		}
	})

	t.Run("maps unknown reservations", func(t *testing.T) {
		store := &reservationStoreStub{cancelErr: persistence.ErrNotFound}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		_, err := svc.CancelReservation(context.Background(), "room-1", "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReservationService_Windows(t *testing.T) {
	now := time.Date(2025, time.September, 3, 12, 0, 0, 0, time.UTC)
	from := now
	to := now.Add(24 * time.Hour)

	t.Run("list forwards the half-open window", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		if _, err := svc.ListRoomReservations(context.Background(), "room-1", from, to); err != nil {
			t.Fatalf("ListRoomReservations: %v", err)
		}
		if store.filter.RoomID != "room-1" {
			t.Fatalf("expected room filter, got %+v", store.filter)
		}
		if store.filter.StartsAtOrAfter == nil || !store.filter.StartsAtOrAfter.Equal(from) {
			t.Fatalf("expected lower bound %v, got %v", from, store.filter.StartsAtOrAfter)
		}
		if store.filter.StartsBefore == nil || !store.filter.StartsBefore.Equal(to) {
			t.Fatalf("expected upper bound %v, got %v", to, store.filter.StartsBefore)
		}
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		svc := NewReservationService(&reservationStoreStub{}, nil, nil, fixedClock(now))

		_, err := svc.ListRoomReservations(context.Background(), "room-1", to, from)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("watch forwards the same filter", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		cancel, err := svc.WatchRoomReservations(context.Background(), "room-1", from, to, func([]persistence.Reservation) {}, func(error) {})
		if err != nil {
			t.Fatalf("WatchRoomReservations: %v", err)
		}
		defer cancel()

		if store.watchCalls != 1 || store.watchFilter.RoomID != "room-1" {
			t.Fatalf("expected watch forwarded, got %d calls, filter %+v", store.watchCalls, store.watchFilter)
		}
	})
}

func TestReservationService_UserViews(t *testing.T) {
	now := time.Date(2025, time.September, 3, 12, 0, 0, 0, time.UTC)
	identity := Identity{ID: "user-1"}

	t.Run("list requires an identity", func(t *testing.T) {
		svc := NewReservationService(&reservationStoreStub{}, nil, nil, fixedClock(now))

		_, err := svc.ListUserReservations(context.Background(), Identity{})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("list filters by owner only", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		if _, err := svc.ListUserReservations(context.Background(), identity); err != nil {
			t.Fatalf("ListUserReservations: %v", err)
		}
		if store.filter.UserID != "user-1" || store.filter.RoomID != "" || store.filter.Status != nil {
			t.Fatalf("expected owner-only filter, got %+v", store.filter)
		}
	})

	t.Run("schedule partitions around the clock", func(t *testing.T) {
		cancelledAt := now.Add(-time.Hour)
		store := &reservationStoreStub{list: []persistence.Reservation{
			{ID: "past", Status: persistence.StatusConfirmed, Start: now.Add(-3 * time.Hour), End: now.Add(-2 * time.Hour)},
			{ID: "gone", Status: persistence.StatusCancelled, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour), CancelledAt: &cancelledAt},
			{ID: "soon", Status: persistence.StatusConfirmed, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
		}}
		svc := NewReservationService(store, nil, nil, fixedClock(now))

		schedule, err := svc.UserSchedule(context.Background(), identity)
		if err != nil {
			t.Fatalf("UserSchedule: %v", err)
		}
		if len(schedule.Upcoming) != 1 || schedule.Upcoming[0].ID != "soon" {
			t.Fatalf("expected only the confirmed future reservation upcoming, got %v", schedule.Upcoming)
		}
		if len(schedule.Past) != 2 {
			t.Fatalf("expected past plus cancelled in history, got %v", schedule.Past)
		}
	})

	t.Run("watch requires an identity", func(t *testing.T) {
		svc := NewReservationService(&reservationStoreStub{}, nil, nil, fixedClock(now))

		_, err := svc.WatchUserReservations(context.Background(), Identity{}, func([]persistence.Reservation) {}, func(error) {})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestReservationService_AttachPhoto(t *testing.T) {
	t.Run("requires a URL", func(t *testing.T) {
		svc := NewReservationService(&reservationStoreStub{}, nil, nil, nil)

		_, err := svc.AttachPhoto(context.Background(), "room-1", "res-1", "   ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("stores the trimmed URL", func(t *testing.T) {
		store := &reservationStoreStub{}
		svc := NewReservationService(store, nil, nil, nil)

		res, err := svc.AttachPhoto(context.Background(), "room-1", "res-1", " https://cdn.example.com/p.jpg ")
		if err != nil {
			t.Fatalf("AttachPhoto: %v", err)
		}
		if store.photoURL != "https://cdn.example.com/p.jpg" {
			t.Fatalf("expected trimmed URL forwarded, got %q", store.photoURL)
		}
		if res.PhotoURL == nil || *res.PhotoURL != "https://cdn.example.com/p.jpg" {
			t.Fatalf("expected photo URL on result, got %v", res.PhotoURL)
		}
	})
}

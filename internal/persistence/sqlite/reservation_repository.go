package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/roomreserve/internal/booking"
	"github.com/example/roomreserve/internal/persistence"
)

var reservationColumns = []string{
	"id", "room_id", "user_id", "user_email", "room_name", "building",
	"start_at", "end_at", "purpose", "photo_url", "status",
	"created_at", "cancelled_at",
}

// ReservationRepository implements persistence.ReservationRepository and
// persistence.ReservationWatcher on SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	events *Notifier
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool, events *Notifier) *ReservationRepository {
	return &ReservationRepository{pool: pool, events: events}
}

// AdmitReservation runs the conflict check and the insert inside one write
// transaction. The window query fetches confirmed reservations with
// start < candidate.End, a cheap superset; booking.FindConflict applies the
// exact half-open overlap test. On overlap nothing is written and
// persistence.ErrConflict comes back wrapped with the blocking interval.
func (r *ReservationRepository) AdmitReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	if reservation.ID == "" || reservation.RoomID == "" {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query, args, err := sq.Select(reservationColumns...).
			From("reservations").
			Where(sq.Eq{"room_id": reservation.RoomID}).
			Where(sq.Eq{"status": persistence.StatusConfirmed}).
			Where(sq.Lt{"start_at": formatTime(reservation.End)}).
			OrderBy("start_at ASC", "id ASC").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build conflict window query: %w", err)
		}

		rows, err := tx.Query(query, args...)
		if err != nil {
			return mapSQLError(err)
		}
		existing, err := collectReservations(rows)
		if err != nil {
			return err
		}

		candidate := booking.Interval{Start: reservation.Start, End: reservation.End}
		if hit, found := booking.FindConflict(existing, candidate); found {
			return fmt.Errorf("%w: overlaps reservation %s (%s)",
				persistence.ErrConflict, hit.ID, booking.FormatRange(hit.Start, hit.End))
		}

		insert, insertArgs, err := sq.Insert("reservations").
			Columns(reservationColumns...).
			Values(
				reservation.ID,
				reservation.RoomID,
				reservation.UserID,
				nullableString(reservation.UserEmail),
				reservation.RoomName,
				reservation.Building,
				formatTime(reservation.Start),
				formatTime(reservation.End),
				nullableString(reservation.Purpose),
				nullableString(reservation.PhotoURL),
				string(reservation.Status),
				formatTime(reservation.CreatedAt),
				formatNullableTime(reservation.CancelledAt),
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build reservation insert: %w", err)
		}
		if _, err := tx.Exec(insert, insertArgs...); err != nil {
			return mapSQLError(err)
		}
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	r.events.publish(change{Kind: changeReservations, RoomID: reservation.RoomID, UserID: reservation.UserID})
	return reservation, nil
}

// GetReservation retrieves one reservation scoped by its owning room.
func (r *ReservationRepository) GetReservation(ctx context.Context, roomID, id string) (persistence.Reservation, error) {
	if roomID == "" || id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	query, args, err := sq.Select(reservationColumns...).
		From("reservations").
		Where(sq.Eq{"room_id": roomID, "id": id}).
		ToSql()
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to build reservation select: %w", err)
	}

	res, err := scanReservation(r.pool.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return persistence.Reservation{}, mapSQLError(err)
	}
	return res, nil
}

// ListReservations returns reservations matching the filter ordered by start
// ascending. Start bounds are half-open: [StartsAtOrAfter, StartsBefore).
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	builder := sq.Select(reservationColumns...).
		From("reservations").
		OrderBy("start_at ASC", "id ASC")

	if filter.RoomID != "" {
		builder = builder.Where(sq.Eq{"room_id": filter.RoomID})
	}
	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.StartsAtOrAfter != nil {
		builder = builder.Where(sq.GtOrEq{"start_at": formatTime(*filter.StartsAtOrAfter)})
	}
	if filter.StartsBefore != nil {
		builder = builder.Where(sq.Lt{"start_at": formatTime(*filter.StartsBefore)})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reservation list: %w", err)
	}

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return collectReservations(rows)
}

// CancelReservation flips the status to cancelled and stamps cancelledAt
// exactly once. The record survives as history.
func (r *ReservationRepository) CancelReservation(ctx context.Context, roomID, id string, cancelledAt time.Time) (persistence.Reservation, error) {
	var cancelled persistence.Reservation

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query, args, err := sq.Select(reservationColumns...).
			From("reservations").
			Where(sq.Eq{"room_id": roomID, "id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build reservation select: %w", err)
		}

		existing, err := scanReservation(tx.QueryRow(query, args...))
		if err != nil {
			return mapSQLError(err)
		}
		if existing.Status == persistence.StatusCancelled {
			return persistence.ErrAlreadyCancelled
		}

		update, updateArgs, err := sq.Update("reservations").
			Set("status", string(persistence.StatusCancelled)).
			Set("cancelled_at", formatTime(cancelledAt)).
			Where(sq.Eq{"room_id": roomID, "id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build cancel update: %w", err)
		}
		if _, err := tx.Exec(update, updateArgs...); err != nil {
			return mapSQLError(err)
		}

		cancelled = existing
		cancelled.Status = persistence.StatusCancelled
		stamped := cancelledAt.UTC().Truncate(time.Second)
		cancelled.CancelledAt = &stamped
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	r.events.publish(change{Kind: changeReservations, RoomID: cancelled.RoomID, UserID: cancelled.UserID})
	return cancelled, nil
}

// SetReservationPhotoURL stores the upload collaborator's URL verbatim.
func (r *ReservationRepository) SetReservationPhotoURL(ctx context.Context, roomID, id, photoURL string) (persistence.Reservation, error) {
	update, args, err := sq.Update("reservations").
		Set("photo_url", photoURL).
		Where(sq.Eq{"room_id": roomID, "id": id}).
		ToSql()
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to build photo update: %w", err)
	}

	result, err := r.pool.db.ExecContext(ctx, update, args...)
	if err != nil {
		return persistence.Reservation{}, mapSQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	updated, err := r.GetReservation(ctx, roomID, id)
	if err != nil {
		return persistence.Reservation{}, err
	}
	r.events.publish(change{Kind: changeReservations, RoomID: roomID, UserID: updated.UserID})
	return updated, nil
}

// WatchReservations delivers the full matching set now and after every
// reservation mutation that could affect the filter.
func (r *ReservationRepository) WatchReservations(ctx context.Context, filter persistence.ReservationFilter, onChange func([]persistence.Reservation), onError func(error)) (func(), error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}

	deliver := func() {
		reservations, err := r.ListReservations(ctx, filter)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(reservations)
	}

	return r.events.subscribe(matchesReservation(filter.RoomID, filter.UserID), deliver), nil
}

func collectReservations(rows *sql.Rows) ([]persistence.Reservation, error) {
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError(err)
	}
	return reservations, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		res                          persistence.Reservation
		userEmail, purpose, photoURL sql.NullString
		startAt, endAt, createdAt    string
		status                       string
		cancelledAt                  sql.NullString
	)

	if err := row.Scan(
		&res.ID,
		&res.RoomID,
		&res.UserID,
		&userEmail,
		&res.RoomName,
		&res.Building,
		&startAt,
		&endAt,
		&purpose,
		&photoURL,
		&status,
		&createdAt,
		&cancelledAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	res.UserEmail = stringPtr(userEmail)
	res.Purpose = stringPtr(purpose)
	res.PhotoURL = stringPtr(photoURL)
	res.Status = persistence.ReservationStatus(status)

	var err error
	if res.Start, err = parseTime(startAt); err != nil {
		return persistence.Reservation{}, err
	}
	if res.End, err = parseTime(endAt); err != nil {
		return persistence.Reservation{}, err
	}
	if res.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if res.CancelledAt, err = parseNullableTime(cancelledAt); err != nil {
		return persistence.Reservation{}, err
	}
	return res, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/roomreserve/internal/persistence"
)

var roomColumns = []string{
	"id", "name", "building", "floor", "description", "image_url",
	"capacity", "amenities", "opening_start", "opening_end",
	"location_lat", "location_lng", "location_label",
	"created_at", "updated_at",
}

// RoomRepository implements persistence.RoomRepository and
// persistence.RoomWatcher on SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	events *Notifier
}

// NewRoomRepository creates a new SQLite room repository. Mutations are
// announced through events so live queries can redeliver.
func NewRoomRepository(pool *ConnectionPool, events *Notifier) *RoomRepository {
	return &RoomRepository{pool: pool, events: events}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	amenities, err := json.Marshal(room.Amenities)
	if err != nil {
		return fmt.Errorf("failed to encode amenities: %w", err)
	}

	query, args, err := sq.Insert("rooms").
		Columns(roomColumns...).
		Values(
			room.ID,
			room.Name,
			room.Building,
			nullableString(room.Floor),
			nullableString(room.Description),
			nullableString(room.ImageURL),
			room.Capacity,
			string(amenities),
			openingValue(room.OpeningHours, true),
			openingValue(room.OpeningHours, false),
			locationLat(room.Location),
			locationLng(room.Location),
			locationLabel(room.Location),
			formatTime(room.CreatedAt),
			formatTime(room.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build room insert: %w", err)
	}

	if _, err := r.pool.db.ExecContext(ctx, query, args...); err != nil {
		return mapSQLError(err)
	}

	r.events.publish(change{Kind: changeRooms, RoomID: room.ID})
	return nil
}

// UpdateRoom replaces every mutable column of an existing room. Partial
// update semantics (leave vs clear) are resolved by the caller before the
// merged row arrives here. Denormalized copies on reservations are left
// alone on purpose: they are creation-time snapshots.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}

	amenities, err := json.Marshal(room.Amenities)
	if err != nil {
		return fmt.Errorf("failed to encode amenities: %w", err)
	}

	query, args, err := sq.Update("rooms").
		Set("name", room.Name).
		Set("building", room.Building).
		Set("floor", nullableString(room.Floor)).
		Set("description", nullableString(room.Description)).
		Set("image_url", nullableString(room.ImageURL)).
		Set("capacity", room.Capacity).
		Set("amenities", string(amenities)).
		Set("opening_start", openingValue(room.OpeningHours, true)).
		Set("opening_end", openingValue(room.OpeningHours, false)).
		Set("location_lat", locationLat(room.Location)).
		Set("location_lng", locationLng(room.Location)).
		Set("location_label", locationLabel(room.Location)).
		Set("updated_at", formatTime(room.UpdatedAt)).
		Where(sq.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build room update: %w", err)
	}

	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapSQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	r.events.publish(change{Kind: changeRooms, RoomID: room.ID})
	return nil
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query, args, err := sq.Select(roomColumns...).
		From("rooms").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return persistence.Room{}, fmt.Errorf("failed to build room select: %w", err)
	}

	room, err := scanRoom(r.pool.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return persistence.Room{}, mapSQLError(err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query, args, err := sq.Select(roomColumns...).
		From("rooms").
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build room list: %w", err)
	}

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError(err)
	}
	return rooms, nil
}

// DeleteRoom removes the room and all of its reservations in one
// transaction, so history never outlives the room.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reservations WHERE room_id = ?", id); err != nil {
			return mapSQLError(err)
		}

		result, err := tx.Exec("DELETE FROM rooms WHERE id = ?", id)
		if err != nil {
			return mapSQLError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.publish(change{Kind: changeRooms, RoomID: id})
	r.events.publish(change{Kind: changeReservations, RoomID: id})
	return nil
}

// WatchRooms delivers the full ordered room list now and after every room
// mutation. The unsubscribe handle is idempotent; query failures go to
// onError without ending the subscription.
func (r *RoomRepository) WatchRooms(ctx context.Context, onChange func([]persistence.Room), onError func(error)) (func(), error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}

	deliver := func() {
		rooms, err := r.ListRooms(ctx)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(rooms)
	}

	return r.events.subscribe(matchesRooms, deliver), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                         persistence.Room
		floor, description, imageURL sql.NullString
		amenities                    string
		openStart, openEnd           sql.NullString
		lat, lng                     sql.NullFloat64
		locationLabel                sql.NullString
		createdAt, updatedAt         string
	)

	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Building,
		&floor,
		&description,
		&imageURL,
		&room.Capacity,
		&amenities,
		&openStart,
		&openEnd,
		&lat,
		&lng,
		&locationLabel,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Room{}, err
	}

	room.Floor = stringPtr(floor)
	room.Description = stringPtr(description)
	room.ImageURL = stringPtr(imageURL)

	if err := json.Unmarshal([]byte(amenities), &room.Amenities); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to decode amenities: %w", err)
	}

	if openStart.Valid && openEnd.Valid {
		room.OpeningHours = &persistence.OpeningHours{Start: openStart.String, End: openEnd.String}
	}
	if lat.Valid && lng.Valid {
		room.Location = &persistence.Location{Lat: lat.Float64, Lng: lng.Float64, Label: locationLabel.String}
	}

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func openingValue(hours *persistence.OpeningHours, start bool) any {
	if hours == nil {
		return nil
	}
	if start {
		return hours.Start
	}
	return hours.End
}

func locationLat(loc *persistence.Location) any {
	if loc == nil {
		return nil
	}
	return loc.Lat
}

func locationLng(loc *persistence.Location) any {
	if loc == nil {
		return nil
	}
	return loc.Lng
}

func locationLabel(loc *persistence.Location) any {
	if loc == nil {
		return nil
	}
	return loc.Label
}

package sqlite

import (
	"context"
	"fmt"
)

// schema is applied as a whole on startup. The service owns its database
// file, so a single idempotent bootstrap replaces a migration pipeline.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		building       TEXT NOT NULL,
		floor          TEXT,
		description    TEXT,
		image_url      TEXT,
		capacity       INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		amenities      TEXT NOT NULL DEFAULT '[]',
		opening_start  TEXT,
		opening_end    TEXT,
		location_lat   REAL,
		location_lng   REAL,
		location_label TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_name ON rooms (name, id)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           TEXT PRIMARY KEY,
		room_id      TEXT NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL,
		user_email   TEXT,
		room_name    TEXT NOT NULL,
		building     TEXT NOT NULL,
		start_at     TEXT NOT NULL,
		end_at       TEXT NOT NULL,
		purpose      TEXT,
		photo_url    TEXT,
		status       TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
		created_at   TEXT NOT NULL,
		cancelled_at TEXT,
		CHECK (end_at > start_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_start ON reservations (room_id, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user_start ON reservations (user_id, start_at)`,
}

// Migrate creates the schema when missing. Safe to call on every startup.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

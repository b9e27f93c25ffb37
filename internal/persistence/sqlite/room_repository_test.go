package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roomreserve/internal/persistence"
)

func newTestPool(t *testing.T) (*ConnectionPool, *Notifier) {
	t.Helper()

	pool, err := Open(":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, pool.Migrate(context.Background()))
	return pool, NewNotifier()
}

func testRoom(id string) persistence.Room {
	now := time.Date(2025, time.September, 12, 8, 0, 0, 0, time.UTC)
	floor := "3"
	return persistence.Room{
		ID:        id,
		Name:      "Study Room " + id,
		Building:  "Library",
		Floor:     &floor,
		Capacity:  6,
		Amenities: []string{"Whiteboard", "HDMI"},
		OpeningHours: &persistence.OpeningHours{
			Start: "08:00",
			End:   "22:00",
		},
		Location:  &persistence.Location{Lat: 43.94595, Lng: -78.89642, Label: "Library Main Entrance"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)
	ctx := context.Background()

	room := testRoom("room-1")
	require.NoError(t, repo.CreateRoom(ctx, room))

	got, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)

	assert.Equal(t, room.Name, got.Name)
	assert.Equal(t, room.Building, got.Building)
	require.NotNil(t, got.Floor)
	assert.Equal(t, "3", *got.Floor)
	assert.Equal(t, []string{"Whiteboard", "HDMI"}, got.Amenities)
	require.NotNil(t, got.OpeningHours)
	assert.Equal(t, "08:00", got.OpeningHours.Start)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Library Main Entrance", got.Location.Label)
	assert.True(t, got.CreatedAt.Equal(room.CreatedAt))
}

func TestRoomRepository_CreateRejectsDuplicateID(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)
	ctx := context.Background()

	require.NoError(t, repo.CreateRoom(ctx, testRoom("room-1")))
	err := repo.CreateRoom(ctx, testRoom("room-1"))
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
}

func TestRoomRepository_GetMissing(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)

	_, err := repo.GetRoom(context.Background(), "nope")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestRoomRepository_ListOrdersByName(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)
	ctx := context.Background()

	zulu := testRoom("room-z")
	zulu.Name = "Zeta Lab"
	alpha := testRoom("room-a")
	alpha.Name = "Alpha Commons"

	require.NoError(t, repo.CreateRoom(ctx, zulu))
	require.NoError(t, repo.CreateRoom(ctx, alpha))

	rooms, err := repo.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Alpha Commons", rooms[0].Name)
	assert.Equal(t, "Zeta Lab", rooms[1].Name)
}

func TestRoomRepository_UpdateClearsOptionalFields(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)
	ctx := context.Background()

	room := testRoom("room-1")
	require.NoError(t, repo.CreateRoom(ctx, room))

	room.Floor = nil
	room.OpeningHours = nil
	room.Location = nil
	room.UpdatedAt = room.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.UpdateRoom(ctx, room))

	got, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Nil(t, got.Floor)
	assert.Nil(t, got.OpeningHours)
	assert.Nil(t, got.Location)
}

func TestRoomRepository_UpdateMissing(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)

	err := repo.UpdateRoom(context.Background(), testRoom("ghost"))
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestRoomRepository_DeleteCascadesReservations(t *testing.T) {
	pool, events := newTestPool(t)
	rooms := NewRoomRepository(pool, events)
	reservations := NewReservationRepository(pool, events)
	ctx := context.Background()

	require.NoError(t, rooms.CreateRoom(ctx, testRoom("room-1")))
	require.NoError(t, rooms.CreateRoom(ctx, testRoom("room-2")))

	base := time.Date(2025, time.September, 12, 10, 0, 0, 0, time.UTC)
	for i, roomID := range []string{"room-1", "room-1", "room-2"} {
		res := testReservation("res-"+string(rune('a'+i)), roomID, "user-1")
		res.Start = base.Add(time.Duration(i) * 2 * time.Hour)
		res.End = res.Start.Add(time.Hour)
		_, err := reservations.AdmitReservation(ctx, res)
		require.NoError(t, err)
	}

	require.NoError(t, rooms.DeleteRoom(ctx, "room-1"))

	_, err := rooms.GetRoom(ctx, "room-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	orphans, err := reservations.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-1"})
	require.NoError(t, err)
	assert.Empty(t, orphans)

	survivors, err := reservations.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-2"})
	require.NoError(t, err)
	assert.Len(t, survivors, 1)
}

func TestRoomRepository_DeleteMissing(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)

	err := repo.DeleteRoom(context.Background(), "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestRoomRepository_WatchRooms(t *testing.T) {
	pool, events := newTestPool(t)
	repo := NewRoomRepository(pool, events)
	ctx := context.Background()

	snapshots := make(chan []persistence.Room, 8)
	unsubscribe, err := repo.WatchRooms(ctx, func(rooms []persistence.Room) {
		snapshots <- rooms
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	// Initial snapshot arrives before any mutation.
	assert.Empty(t, waitForRooms(t, snapshots))

	require.NoError(t, repo.CreateRoom(ctx, testRoom("room-1")))
	assert.Len(t, waitForRooms(t, snapshots), 1)

	require.NoError(t, repo.DeleteRoom(ctx, "room-1"))
	assert.Empty(t, waitForRooms(t, snapshots))

	unsubscribe()
	unsubscribe() // idempotent
	assert.Equal(t, 0, events.ActiveSubscriptions())
}

func waitForRooms(t *testing.T, ch chan []persistence.Room) []persistence.Room {
	t.Helper()
	select {
	case rooms := <-ch:
		return rooms
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room snapshot")
		return nil
	}
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// RoomStore captures the persistence operations needed by the room service.
type RoomStore interface {
	CreateRoom(ctx context.Context, room persistence.Room) error
	UpdateRoom(ctx context.Context, room persistence.Room) error
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	WatchRooms(ctx context.Context, onChange func([]persistence.Room), onError func(error)) (func(), error)
}

// RoomService orchestrates validation and persistence for rooms.
type RoomService struct {
	rooms       RoomStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomStore, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room. When params.ID is
// empty a fresh identifier is generated.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	vErr := &ValidationError{}
	name := strings.TrimSpace(params.Input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	building := strings.TrimSpace(params.Input.Building)
	if building == "" {
		vErr.add("building", "building is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	id := strings.TrimSpace(params.ID)
	if id == "" {
		id = s.idGenerator()
	}

	capacity := params.Input.Capacity
	if capacity < 0 {
		capacity = 0
	}

	room = persistence.Room{
		ID:           id,
		Name:         name,
		Building:     building,
		Floor:        optionalString(params.Input.Floor),
		Description:  optionalString(params.Input.Description),
		ImageURL:     optionalString(params.Input.ImageURL),
		Capacity:     capacity,
		Amenities:    normalizeAmenities(params.Input.Amenities),
		OpeningHours: normalizeOpeningHours(params.Input.OpeningHours),
		Location:     normalizeLocation(params.Input.Location),
		CreatedAt:    s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	if err = s.rooms.CreateRoom(ctx, room); err != nil {
		err = mapRoomRepoError(err)
		room = persistence.Room{}
		return
	}

	return
}

// UpdateRoom applies a partial update to an existing room. Nil fields are
// left as stored; empty strings clear optional fields.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID string, input RoomUpdateInput) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom", "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	var existing persistence.Room
	existing, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	vErr := &ValidationError{}
	updated := existing

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			vErr.add("name", "name cannot be empty")
		} else {
			updated.Name = name
		}
	}
	if input.Building != nil {
		building := strings.TrimSpace(*input.Building)
		if building == "" {
			vErr.add("building", "building cannot be empty")
		} else {
			updated.Building = building
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if input.Floor != nil {
		updated.Floor = optionalString(*input.Floor)
	}
	if input.Description != nil {
		updated.Description = optionalString(*input.Description)
	}
	if input.ImageURL != nil {
		updated.ImageURL = optionalString(*input.ImageURL)
	}
	if input.Capacity != nil && *input.Capacity >= 0 {
		updated.Capacity = *input.Capacity
	}
	if input.Amenities != nil {
		updated.Amenities = normalizeAmenities(input.Amenities)
	}
	if input.OpeningHours != nil {
		updated.OpeningHours = normalizeOpeningHours(input.OpeningHours)
	}
	if input.Location != nil {
		updated.Location = normalizeLocation(input.Location)
	} else if input.ClearLocation {
		updated.Location = nil
	}
	updated.UpdatedAt = s.now()

	if err = s.rooms.UpdateRoom(ctx, updated); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = updated
	return
}

// DeleteRoom removes a room together with all of its reservations.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom", "room_id", roomID)

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// GetRoom fetches a single room by identifier.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (persistence.Room, error) {
	if s == nil {
		return persistence.Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return persistence.Room{}, fmt.Errorf("room store not configured")
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRoomRepoError(err)
	}
	return room, nil
}

// ListRooms returns the room catalog ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	rooms, err = s.rooms.ListRooms(ctx)
	return
}

// WatchRooms subscribes to live snapshots of the room catalog. The returned
// function cancels the subscription and is safe to call more than once.
func (s *RoomService) WatchRooms(ctx context.Context, onChange func([]persistence.Room), onError func(error)) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return nil, fmt.Errorf("room store not configured")
	}
	return s.rooms.WatchRooms(ctx, onChange, onError)
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity cannot be negative")
		return vErr
	}
	return err
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeAmenities(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeOpeningHours(input *OpeningHoursInput) *persistence.OpeningHours {
	if input == nil {
		return nil
	}
	start := strings.TrimSpace(input.Start)
	end := strings.TrimSpace(input.End)
	if start == "" || end == "" {
		return nil
	}
	return &persistence.OpeningHours{Start: start, End: end}
}

func normalizeLocation(input *LocationInput) *persistence.Location {
	if input == nil {
		return nil
	}
	return &persistence.Location{
		Lat:   input.Lat,
		Lng:   input.Lng,
		Label: strings.TrimSpace(input.Label),
	}
}

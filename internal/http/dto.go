package http

import (
	"time"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/booking"
	"github.com/example/roomreserve/internal/maps"
	"github.com/example/roomreserve/internal/persistence"
)

type openingHoursDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type locationDTO struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

type roomDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Building      string           `json:"building"`
	Floor         *string          `json:"floor,omitempty"`
	Description   *string          `json:"description,omitempty"`
	ImageURL      *string          `json:"imageUrl,omitempty"`
	Capacity      int              `json:"capacity"`
	Amenities     []string         `json:"amenities"`
	OpeningHours  *openingHoursDTO `json:"openingHours,omitempty"`
	Location      *locationDTO     `json:"location,omitempty"`
	StaticMapURL  string           `json:"staticMapUrl,omitempty"`
	DirectionsURL string           `json:"directionsUrl,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func toRoomDTO(room persistence.Room, mapURLs *maps.Builder) roomDTO {
	dto := roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Building:    room.Building,
		Floor:       room.Floor,
		Description: room.Description,
		ImageURL:    room.ImageURL,
		Capacity:    room.Capacity,
		Amenities:   room.Amenities,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
	if dto.Amenities == nil {
		dto.Amenities = []string{}
	}
	if room.OpeningHours != nil {
		dto.OpeningHours = &openingHoursDTO{Start: room.OpeningHours.Start, End: room.OpeningHours.End}
	}
	if room.Location != nil {
		dto.Location = &locationDTO{Lat: room.Location.Lat, Lng: room.Location.Lng, Label: room.Location.Label}
		if mapURLs != nil {
			dto.StaticMapURL = mapURLs.StaticMapURL(room.Location.Lat, room.Location.Lng, room.Location.Label)
			dto.DirectionsURL = mapURLs.DirectionsURL(room.Location.Lat, room.Location.Lng)
		}
	}
	return dto
}

func toRoomDTOs(rooms []persistence.Room, mapURLs *maps.Builder) []roomDTO {
	out := make([]roomDTO, len(rooms))
	for i, room := range rooms {
		out[i] = toRoomDTO(room, mapURLs)
	}
	return out
}

type roomCreateRequest struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Building     string           `json:"building"`
	Floor        string           `json:"floor"`
	Description  string           `json:"description"`
	ImageURL     string           `json:"imageUrl"`
	Capacity     int              `json:"capacity"`
	Amenities    []string         `json:"amenities"`
	OpeningHours *openingHoursDTO `json:"openingHours"`
	Location     *locationDTO     `json:"location"`
}

func (r roomCreateRequest) toParams() application.CreateRoomParams {
	return application.CreateRoomParams{
		ID: r.ID,
		Input: application.RoomInput{
			Name:         r.Name,
			Building:     r.Building,
			Floor:        r.Floor,
			Description:  r.Description,
			ImageURL:     r.ImageURL,
			Capacity:     r.Capacity,
			Amenities:    r.Amenities,
			OpeningHours: toOpeningHoursInput(r.OpeningHours),
			Location:     toLocationInput(r.Location),
		},
	}
}

type roomUpdateRequest struct {
	Name          *string          `json:"name"`
	Building      *string          `json:"building"`
	Floor         *string          `json:"floor"`
	Description   *string          `json:"description"`
	ImageURL      *string          `json:"imageUrl"`
	Capacity      *int             `json:"capacity"`
	Amenities     []string         `json:"amenities"`
	OpeningHours  *openingHoursDTO `json:"openingHours"`
	Location      *locationDTO     `json:"location"`
	ClearLocation bool             `json:"clearLocation"`
}

func (r roomUpdateRequest) toInput() application.RoomUpdateInput {
	return application.RoomUpdateInput{
		Name:          r.Name,
		Building:      r.Building,
		Floor:         r.Floor,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		Capacity:      r.Capacity,
		Amenities:     r.Amenities,
		OpeningHours:  toOpeningHoursInput(r.OpeningHours),
		Location:      toLocationInput(r.Location),
		ClearLocation: r.ClearLocation,
	}
}

func toOpeningHoursInput(dto *openingHoursDTO) *application.OpeningHoursInput {
	if dto == nil {
		return nil
	}
	return &application.OpeningHoursInput{Start: dto.Start, End: dto.End}
}

func toLocationInput(dto *locationDTO) *application.LocationInput {
	if dto == nil {
		return nil
	}
	return &application.LocationInput{Lat: dto.Lat, Lng: dto.Lng, Label: dto.Label}
}

type reservationDTO struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"roomId"`
	UserID      string     `json:"userId"`
	UserEmail   *string    `json:"userEmail,omitempty"`
	RoomName    string     `json:"roomName"`
	Building    string     `json:"building"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	TimeLabel   string     `json:"timeLabel"`
	Purpose     *string    `json:"purpose,omitempty"`
	PhotoURL    *string    `json:"photoUrl,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

func toReservationDTO(res persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:          res.ID,
		RoomID:      res.RoomID,
		UserID:      res.UserID,
		UserEmail:   res.UserEmail,
		RoomName:    res.RoomName,
		Building:    res.Building,
		Start:       res.Start,
		End:         res.End,
		TimeLabel:   booking.FormatRange(res.Start, res.End),
		Purpose:     res.Purpose,
		PhotoURL:    res.PhotoURL,
		Status:      string(res.Status),
		CreatedAt:   res.CreatedAt,
		CancelledAt: res.CancelledAt,
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	out := make([]reservationDTO, len(reservations))
	for i, res := range reservations {
		out[i] = toReservationDTO(res)
	}
	return out
}

type reservationCreateRequest struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Purpose string    `json:"purpose"`
}

type reservationListResponse struct {
	Reservations   []reservationDTO `json:"reservations"`
	SuggestedStart time.Time        `json:"suggestedStart"`
}

type scheduleResponse struct {
	Upcoming []reservationDTO `json:"upcoming"`
	Past     []reservationDTO `json:"past"`
}

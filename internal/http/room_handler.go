package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/maps"
	"github.com/example/roomreserve/internal/persistence"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (persistence.Room, error)
	UpdateRoom(ctx context.Context, roomID string, input application.RoomUpdateInput) (persistence.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	GetRoom(ctx context.Context, roomID string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
	WatchRooms(ctx context.Context, onChange func([]persistence.Room), onError func(error)) (func(), error)
}

// watchMetrics tracks live subscription counts. Nil disables tracking.
type watchMetrics interface {
	WatcherStarted()
	WatcherStopped()
}

type RoomHandler struct {
	service   roomService
	mapURLs   *maps.Builder
	metrics   watchMetrics
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, mapURLs *maps.Builder, metrics watchMetrics, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{
		service:   service,
		mapURLs:   mapURLs,
		metrics:   metrics,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req roomCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	room, err := h.service.CreateRoom(r.Context(), req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room, h.mapURLs))
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	var req roomUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), roomID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room, h.mapURLs))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	logger := h.log(r.Context(), "Delete", "room_id", roomID)

	if err := h.service.DeleteRoom(r.Context(), roomID); err != nil {
		logger.ErrorContext(r.Context(), "room deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", roomID).ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room, h.mapURLs))
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "room listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTOs(rooms, h.mapURLs))
}

// Watch streams the full room catalog as a server-sent event on every
// change, starting with the current state.
func (h *RoomHandler) Watch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Watch")

	stream, err := startSSE(w)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	onChange := func(rooms []persistence.Room) {
		if err := stream.send("rooms", toRoomDTOs(rooms, h.mapURLs)); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream room snapshot", "error", err)
		}
	}
	onError := func(watchErr error) {
		if err := stream.send("error", errorResponse{Message: "The room list could not be refreshed."}); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream watch error", "error", err)
		}
	}

	cancel, err := h.service.WatchRooms(r.Context(), onChange, onError)
	if err != nil {
		logger.ErrorContext(r.Context(), "room watch failed", "error", err, "error_kind", application.ErrorKind(err))
		return
	}
	defer cancel()

	if h.metrics != nil {
		h.metrics.WatcherStarted()
		defer h.metrics.WatcherStopped()
	}

	logger.InfoContext(r.Context(), "room watch started")
	<-r.Context().Done()
	logger.InfoContext(r.Context(), "room watch closed")
}

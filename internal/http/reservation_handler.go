package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/blob"
	"github.com/example/roomreserve/internal/booking"
	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/timeutil"
)

const maxPhotoBytes = 10 << 20

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, error)
	CancelReservation(ctx context.Context, roomID, reservationID string) (persistence.Reservation, error)
	GetReservation(ctx context.Context, roomID, reservationID string) (persistence.Reservation, error)
	ListRoomReservations(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error)
	WatchRoomReservations(ctx context.Context, roomID string, from, to time.Time, onChange func([]persistence.Reservation), onError func(error)) (func(), error)
	UserSchedule(ctx context.Context, identity application.Identity) (booking.Partitioned, error)
	WatchUserReservations(ctx context.Context, identity application.Identity, onChange func([]persistence.Reservation), onError func(error)) (func(), error)
	AttachPhoto(ctx context.Context, roomID, reservationID, photoURL string) (persistence.Reservation, error)
}

type ReservationHandler struct {
	service       reservationService
	uploader      blob.Uploader
	metrics       watchMetrics
	now           func() time.Time
	windowDays    int
	slotIncrement time.Duration
	responder     responder
	logger        *slog.Logger
}

// ReservationHandlerConfig bundles the handler's collaborators. Now defaults
// to time.Now; WindowDays and SlotIncrement fall back to two weeks and half
// an hour.
type ReservationHandlerConfig struct {
	Service       reservationService
	Uploader      blob.Uploader
	Metrics       watchMetrics
	Now           func() time.Time
	WindowDays    int
	SlotIncrement time.Duration
	Logger        *slog.Logger
}

func NewReservationHandler(cfg ReservationHandlerConfig) *ReservationHandler {
	base := defaultLogger(cfg.Logger)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 14
	}
	increment := cfg.SlotIncrement
	if increment <= 0 {
		increment = 30 * time.Minute
	}
	return &ReservationHandler{
		service:       cfg.Service,
		uploader:      cfg.Uploader,
		metrics:       cfg.Metrics,
		now:           now,
		windowDays:    windowDays,
		slotIncrement: increment,
		responder:     newResponder(base),
		logger:        base,
	}
}

func (h *ReservationHandler) slotMinutes() int {
	return int(h.slotIncrement / time.Minute)
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// window resolves the [from, to) query window, defaulting to the configured
// number of days starting at the beginning of today.
func (h *ReservationHandler) window(r *http.Request) (time.Time, time.Time, error) {
	from := timeutil.StartOfDay(h.now())
	to := from.AddDate(0, 0, h.windowDays)

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidTimeRange
		}
		from = parsed
		to = from.AddDate(0, 0, h.windowDays)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidTimeRange
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errInvalidTimeRange
	}
	return from, to, nil
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	identity, _ := IdentityFromContext(r.Context())

	var req reservationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", roomID, "user_id", identity.ID)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		RoomID:   roomID,
		Identity: identity,
		Input: application.ReservationInput{
			Start:   req.Start,
			End:     req.End,
			Purpose: req.Purpose,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *ReservationHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	from, to, err := h.window(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	reservations, err := h.service.ListRoomReservations(r.Context(), roomID, from, to)
	if err != nil {
		h.log(r.Context(), "ListForRoom", "room_id", roomID).ErrorContext(r.Context(), "reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{
		Reservations:   toReservationDTOs(reservations),
		SuggestedStart: timeutil.RoundUpToIncrement(h.now(), h.slotMinutes()),
	})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	vars := mux.Vars(r)
	roomID := strings.TrimSpace(vars["roomID"])
	reservationID := strings.TrimSpace(vars["reservationID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	if reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), roomID, reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", roomID, "reservation_id", reservationID).ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	vars := mux.Vars(r)
	roomID := strings.TrimSpace(vars["roomID"])
	reservationID := strings.TrimSpace(vars["reservationID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	if reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	logger := h.log(r.Context(), "Cancel", "room_id", roomID, "reservation_id", reservationID)

	reservation, err := h.service.CancelReservation(r.Context(), roomID, reservationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// UploadPhoto stores the uploaded image and records its URL on the
// reservation.
func (h *ReservationHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if h.uploader == nil {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, fmt.Errorf("photo uploads are not enabled"))
		return
	}

	vars := mux.Vars(r)
	roomID := strings.TrimSpace(vars["roomID"])
	reservationID := strings.TrimSpace(vars["reservationID"])
	if roomID == "" || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	logger := h.log(r.Context(), "UploadPhoto", "room_id", roomID, "reservation_id", reservationID)

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to read uploaded photo", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, fmt.Errorf("a photo file is required"))
		return
	}
	defer file.Close()

	name := fmt.Sprintf("%s-%d%s", reservationID, h.now().UnixNano(), filepath.Ext(header.Filename))
	url, err := h.uploader.Upload(r.Context(), name, header.Header.Get("Content-Type"), file)
	if err != nil {
		logger.ErrorContext(r.Context(), "photo upload failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	reservation, err := h.service.AttachPhoto(r.Context(), roomID, reservationID, url)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to attach photo", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "photo attached")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// Schedule returns the caller's reservations split into upcoming and past.
func (h *ReservationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	identity, _ := IdentityFromContext(r.Context())

	schedule, err := h.service.UserSchedule(r.Context(), identity)
	if err != nil {
		h.log(r.Context(), "Schedule", "user_id", identity.ID).ErrorContext(r.Context(), "schedule lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{
		Upcoming: toReservationDTOs(schedule.Upcoming),
		Past:     toReservationDTOs(schedule.Past),
	})
}

// WatchRoom streams the room's reservation snapshot for the query window on
// every change.
func (h *ReservationHandler) WatchRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(mux.Vars(r)["roomID"])
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	from, to, err := h.window(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "WatchRoom", "room_id", roomID)

	stream, err := startSSE(w)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	suggested := timeutil.RoundUpToIncrement(h.now(), h.slotMinutes())
	onChange := func(reservations []persistence.Reservation) {
		payload := reservationListResponse{
			Reservations:   toReservationDTOs(reservations),
			SuggestedStart: suggested,
		}
		if err := stream.send("reservations", payload); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream reservation snapshot", "error", err)
		}
	}
	onError := func(error) {
		if err := stream.send("error", errorResponse{Message: "The schedule could not be refreshed."}); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream watch error", "error", err)
		}
	}

	cancel, err := h.service.WatchRoomReservations(r.Context(), roomID, from, to, onChange, onError)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation watch failed", "error", err, "error_kind", application.ErrorKind(err))
		return
	}
	defer cancel()

	if h.metrics != nil {
		h.metrics.WatcherStarted()
		defer h.metrics.WatcherStopped()
	}

	logger.InfoContext(r.Context(), "reservation watch started")
	<-r.Context().Done()
	logger.InfoContext(r.Context(), "reservation watch closed")
}

// WatchMine streams the caller's reservations on every change.
func (h *ReservationHandler) WatchMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	if !identity.Present() {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthenticated)
		return
	}

	logger := h.log(r.Context(), "WatchMine", "user_id", identity.ID)

	stream, err := startSSE(w)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	onChange := func(reservations []persistence.Reservation) {
		if err := stream.send("reservations", toReservationDTOs(reservations)); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream reservation snapshot", "error", err)
		}
	}
	onError := func(error) {
		if err := stream.send("error", errorResponse{Message: "Your bookings could not be refreshed."}); err != nil {
			logger.ErrorContext(r.Context(), "failed to stream watch error", "error", err)
		}
	}

	cancel, err := h.service.WatchUserReservations(r.Context(), identity, onChange, onError)
	if err != nil {
		logger.ErrorContext(r.Context(), "user reservation watch failed", "error", err, "error_kind", application.ErrorKind(err))
		return
	}
	defer cancel()

	if h.metrics != nil {
		h.metrics.WatcherStarted()
		defer h.metrics.WatcherStopped()
	}

	logger.InfoContext(r.Context(), "user reservation watch started")
	<-r.Context().Done()
	logger.InfoContext(r.Context(), "user reservation watch closed")
}

package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig wires handlers and middleware into the HTTP surface.
type RouterConfig struct {
	Rooms        *RoomHandler
	Reservations *ReservationHandler
	Middleware   []mux.MiddlewareFunc
	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler http.Handler
	MetricsPath    string
	// PhotoDir serves stored photos under PhotoBaseURL when both are set.
	PhotoDir     string
	PhotoBaseURL string
}

// NewRouter builds the route table. Watch endpoints are registered before
// their parameterized siblings so "watch" is never taken as an identifier.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)

	if cfg.MetricsHandler != nil && cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler).Methods(http.MethodGet)
	}

	if cfg.PhotoDir != "" && cfg.PhotoBaseURL != "" {
		prefix := cfg.PhotoBaseURL + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.PhotoDir)))).Methods(http.MethodGet)
	}

	if cfg.Rooms != nil {
		r.HandleFunc("/rooms", cfg.Rooms.List).Methods(http.MethodGet)
		r.HandleFunc("/rooms", cfg.Rooms.Create).Methods(http.MethodPost)
		r.HandleFunc("/rooms/watch", cfg.Rooms.Watch).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{roomID}", cfg.Rooms.Get).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{roomID}", cfg.Rooms.Update).Methods(http.MethodPatch)
		r.HandleFunc("/rooms/{roomID}", cfg.Rooms.Delete).Methods(http.MethodDelete)
	}

	if cfg.Reservations != nil {
		r.HandleFunc("/rooms/{roomID}/reservations", cfg.Reservations.ListForRoom).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{roomID}/reservations", cfg.Reservations.Create).Methods(http.MethodPost)
		r.HandleFunc("/rooms/{roomID}/reservations/watch", cfg.Reservations.WatchRoom).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{roomID}/reservations/{reservationID}", cfg.Reservations.Get).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{roomID}/reservations/{reservationID}/cancel", cfg.Reservations.Cancel).Methods(http.MethodPost)
		r.HandleFunc("/rooms/{roomID}/reservations/{reservationID}/photo", cfg.Reservations.UploadPhoto).Methods(http.MethodPost)
		r.HandleFunc("/me/reservations", cfg.Reservations.Schedule).Methods(http.MethodGet)
		r.HandleFunc("/me/reservations/watch", cfg.Reservations.WatchMine).Methods(http.MethodGet)
	}

	return r
}

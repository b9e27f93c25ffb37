package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/blob"
	"github.com/example/roomreserve/internal/config"
	httptransport "github.com/example/roomreserve/internal/http"
	"github.com/example/roomreserve/internal/maps"
	"github.com/example/roomreserve/internal/metrics"
	"github.com/example/roomreserve/internal/persistence/sqlite"

	"github.com/gorilla/mux"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	// Local development reads secrets from .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN, cfg.BusyTimeout)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	events := sqlite.NewNotifier()
	roomRepo := sqlite.NewRoomRepository(pool, events)
	reservationRepo := sqlite.NewReservationRepository(pool, events)

	var recorder *metrics.Metrics
	if cfg.MetricsEnabled {
		recorder = metrics.New()
	}

	roomService := application.NewRoomServiceWithLogger(roomRepo, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, roomRepo, idGenerator, now, logger)
	if recorder != nil {
		reservationService.WithMetrics(recorder)
	}

	uploader, err := blob.NewLocalUploader(cfg.PhotoDir, cfg.PhotoBaseURL)
	if err != nil {
		logger.Error("failed to prepare photo storage", "error", err)
		os.Exit(1)
	}

	mapURLs := maps.NewBuilder(cfg.MapsAPIKey)

	roomHandler := httptransport.NewRoomHandler(roomService, mapURLs, recorder, logger)
	reservationHandler := httptransport.NewReservationHandler(httptransport.ReservationHandlerConfig{
		Service:       reservationService,
		Uploader:      uploader,
		Metrics:       recorder,
		Now:           now,
		WindowDays:    cfg.WatchWindowDays,
		SlotIncrement: cfg.SlotIncrement,
		Logger:        logger,
	})

	routerCfg := httptransport.RouterConfig{
		Rooms:        roomHandler,
		Reservations: reservationHandler,
		Middleware: []mux.MiddlewareFunc{
			httptransport.RequestLogger(logger),
			httptransport.ResolveIdentity(),
		},
		PhotoDir:     cfg.PhotoDir,
		PhotoBaseURL: cfg.PhotoBaseURL,
	}
	if recorder != nil {
		routerCfg.MetricsHandler = recorder.Handler()
		routerCfg.MetricsPath = cfg.MetricsPath
	}

	var handler http.Handler = httptransport.NewRouter(routerCfg)
	if recorder != nil {
		handler = recorder.InstrumentHandler(handler)
	}

	// No WriteTimeout: watch endpoints hold their streams open.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("roomreserve API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/openpair/chess-tournaments/config"
	"github.com/openpair/chess-tournaments/db"
	"github.com/openpair/chess-tournaments/handlers"
	"github.com/openpair/chess-tournaments/pairing"
	"github.com/openpair/chess-tournaments/repositories"
	api "github.com/openpair/chess-tournaments/routes"
	"github.com/openpair/chess-tournaments/services"
	"github.com/openpair/chess-tournaments/storage"
	"github.com/openpair/chess-tournaments/uschess"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Object storage is optional; without it logo uploads are rejected
	// but everything else works.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewR2Uploader(context.Background(), storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Info("object storage not configured, uploads disabled")
	}

	wsHub := pairing.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	sectionRepo := repositories.NewPostgresSectionRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	prizeRepo := repositories.NewPostgresPrizeRepository(dbConn)
	logger.Info("repositories initialized")

	var ratingLookup services.RatingLookup
	if cfg.RatingLookupEnabled {
		ratingLookup = uschess.NewClient()
	}

	locks := services.NewSectionLocker()

	tournamentService := services.NewTournamentService(tournamentRepo, sectionRepo, uploader, logger)
	rosterService := services.NewRosterService(dbConn, tournamentRepo, playerRepo, registrationRepo, ratingLookup, logger)
	pairingService := services.NewPairingService(dbConn, tournamentRepo, sectionRepo, playerRepo, pairingRepo, locks, wsHub, logger)
	roundService := services.NewRoundService(dbConn, tournamentRepo, pairingRepo, locks, wsHub, logger)
	standingsService := services.NewStandingsService(tournamentRepo, sectionRepo, playerRepo, pairingRepo)
	mergeService := services.NewMergeService(
		dbConn,
		tournamentRepo,
		sectionRepo,
		playerRepo,
		pairingRepo,
		registrationRepo,
		teamRepo,
		prizeRepo,
		locks,
		wsHub,
		logger,
	)
	teamService := services.NewTeamService(tournamentRepo, sectionRepo, teamRepo, logger)
	prizeService := services.NewPrizeService(tournamentRepo, sectionRepo, playerRepo, prizeRepo, logger)
	logger.Info("services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	pairingHandler := handlers.NewPairingHandler(pairingService)
	roundHandler := handlers.NewRoundHandler(roundService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	sectionHandler := handlers.NewSectionHandler(mergeService)
	teamHandler := handlers.NewTeamHandler(teamService)
	prizeHandler := handlers.NewPrizeHandler(prizeService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		tournamentHandler,
		rosterHandler,
		pairingHandler,
		roundHandler,
		standingsHandler,
		sectionHandler,
		teamHandler,
		prizeHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

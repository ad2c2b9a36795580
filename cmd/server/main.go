package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mufassa12/contrivance/internal/adapters/api"
	"github.com/Mufassa12/contrivance/internal/adapters/db/memory"
	"github.com/Mufassa12/contrivance/internal/adapters/db/postgres"
	"github.com/Mufassa12/contrivance/internal/application/auth"
	appsheet "github.com/Mufassa12/contrivance/internal/application/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/config"
	domainAuth "github.com/Mufassa12/contrivance/internal/domain/auth"
	domainSheet "github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/realtime"
)

//	@title			Contrivance Collaboration API
//	@version		1.0
//	@description	Real-time collaborative spreadsheet backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories: Postgres when configured, in-memory otherwise
	var (
		userRepo    domainAuth.UserRepository
		sessionRepo domainAuth.SessionRepository
		sheetRepo   domainSheet.Repository
		locker      auth.Locker
	)
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to reach database")
		}
		if err := postgres.RunMigrations(ctx, db, cfg.Database.Migrations); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pgx pool")
		}
		defer pool.Close()

		userRepo = postgres.NewUserRepository(db)
		sessionRepo = postgres.NewSessionRepository(db)
		sheetRepo = postgres.NewSpreadsheetRepository(db)
		locker = postgres.NewLockManager(pool)
		log.Info().Msg("using postgres repositories")
	} else {
		userRepo = memory.NewUserRepository()
		sessionRepo = memory.NewSessionRepository()
		sheetRepo = memory.NewSpreadsheetRepository()
		log.Info().Msg("using in-memory repositories")
	}

	// Services
	registry := realtime.NewRegistry()
	authService := auth.NewService(&cfg.Auth, userRepo, sessionRepo)
	sheetService := appsheet.NewService(sheetRepo, registry)

	go authService.StartSweeper(ctx, cfg.Auth.SweepInterval, locker)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	handler := api.NewHandler(authService, sheetService, registry)
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

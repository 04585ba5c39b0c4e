package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/config"
	"github.com/eduplatform/eduplatform-api/internal/handlers"
	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/middleware"
	"github.com/eduplatform/eduplatform-api/internal/migration"
	"github.com/eduplatform/eduplatform-api/internal/notification"
	"github.com/eduplatform/eduplatform-api/internal/reports"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/eduplatform/eduplatform-api/internal/routes"
	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	notifications notification.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize notification service.
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db, identity.NewPostgres(db, "edu.user_ids"))
	notificationService := notification.NewService(
		notificationRepo, userRepo,
		identity.NewPostgres(db, "edu.notification_ids"),
		logger,
		notification.NewLogNotifier(logger),
	)

	// Create the application instance.
	app := &application{
		config:        cfg,
		db:            db,
		logger:        logger,
		notifications: notificationService,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(userRepo, logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(userRepo repository.UserRepository, logger zerolog.Logger) http.Handler {
	// Repositories
	assignmentRepo := repository.NewAssignmentRepository(app.db)
	gradeRepo := repository.NewGradeRepository(app.db)
	scheduleRepo := repository.NewScheduleRepository(app.db)

	// ID sequences for caller-assigned records
	assignmentIDs := identity.NewPostgres(app.db, "edu.assignment_ids")
	gradeIDs := identity.NewPostgres(app.db, "edu.grade_ids")
	scheduleIDs := identity.NewPostgres(app.db, "edu.schedule_ids")

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	userHandler := handlers.NewUserHandler(userRepo, gradeRepo, assignmentRepo, app.notifications, logger)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentRepo, userRepo, gradeRepo, app.notifications, assignmentIDs, gradeIDs, logger)
	scheduleHandler := handlers.NewScheduleHandler(scheduleRepo, userRepo, scheduleIDs, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)
	reportHandler := handlers.NewReportHandler(reports.NewService(userRepo, assignmentRepo, gradeRepo), logger)

	return routes.NewRouter(authHandler, userHandler, assignmentHandler, scheduleHandler, notificationHandler, reportHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carebridge/carebridge-server/src/config"
	"github.com/carebridge/carebridge-server/src/database"
	"github.com/carebridge/carebridge-server/src/handlers"
	"github.com/carebridge/carebridge-server/src/logging"
	"github.com/carebridge/carebridge-server/src/middleware"
	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/carebridge/carebridge-server/src/services"
	"github.com/carebridge/carebridge-server/src/templates"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	log.Info().Msg("database connected")

	// Initialize token service
	tokenService, err := services.NewTokenService(services.TokenServiceConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        "carebridge",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}
	if tokenService.UsesSharedSecret() {
		log.Warn().Msg("JWT_REFRESH_SECRET not set - refresh tokens are signed with the access-token secret; set a dedicated refresh secret in production")
	}

	hasher, err := services.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize password hasher")
	}

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(db.GetPool())
	patientRepo := repositories.NewPostgresPatientRepository(db.GetPool())
	shiftRepo := repositories.NewPostgresShiftRepository(db.GetPool())
	medicationRepo := repositories.NewPostgresMedicationRepository(db.GetPool())
	noteRepo := repositories.NewPostgresHandoverNoteRepository(db.GetPool())

	// Email service (optional - reset links are logged when unconfigured)
	var emailService services.ResetEmailSender
	if cfg.MailConfigured() {
		emailConfig, err := templates.LoadEmailConfig(cfg.EmailConfigPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.EmailConfigPath).Msg("failed to load email config")
		}
		emailService = services.NewEmailService(
			cfg.MailgunDomain,
			cfg.MailgunAPIKey,
			cfg.MailgunFromEmail,
			cfg.MailgunFromName,
			emailConfig,
		)
		log.Info().Str("domain", cfg.MailgunDomain).Msg("Mailgun email service initialized")
	} else {
		log.Warn().Msg("Mailgun credentials not configured - password reset links will be logged instead of emailed")
	}

	// Services
	authService := services.NewAuthService(userRepo, tokenService, hasher, emailService, cfg.FrontendURL)
	userService := services.NewUserService(userRepo)
	cleanupService := services.NewCleanupService(userRepo, cfg.EnableAutoCleanup)

	// Auto-seed admin user on first run (if admin credentials are set)
	if cfg.AdminUsername != "" && cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		seeded, err := authService.SeedAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Error().Err(err).Msg("failed to seed initial admin user")
		} else if seeded != nil {
			log.Info().Str("username", seeded.Username).Msg("initial admin user created")
		}
	}

	// Start background services
	go cleanupService.Start(context.Background())

	// Create Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogging())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	setupRoutes(router, db, tokenService, authService, userService, patientRepo, shiftRepo, medicationRepo, noteRepo)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + formatPort(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cleanupService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func corsConfig(cfg *config.Config) cors.Config {
	allowed := map[string]bool{
		"http://localhost":      true,
		"http://localhost:3000": true,
		"http://localhost:8080": true,
	}
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}
	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func setupRoutes(
	router *gin.Engine,
	db *database.Database,
	tokenService *services.TokenService,
	authService *services.AuthService,
	userService *services.UserService,
	patientRepo repositories.PatientRepository,
	shiftRepo repositories.ShiftRepository,
	medicationRepo repositories.MedicationRepository,
	noteRepo repositories.HandoverNoteRepository,
) {
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	patientHandler := handlers.NewPatientHandler(patientRepo)
	shiftHandler := handlers.NewShiftHandler(shiftRepo)
	medicationHandler := handlers.NewMedicationHandler(medicationRepo)
	noteHandler := handlers.NewHandoverNoteHandler(noteRepo)

	// Health check endpoints
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)

	// Auth endpoints with per-IP rate limiting
	auth := router.Group("/auth")
	auth.Use(middleware.NewIPRateLimiting(middleware.RateLimitConfig{
		RequestsPerMinute: 10,
		Burst:             5,
	}))
	{
		auth.POST("/signup", authHandler.HandleSignup)
		auth.POST("/signin", authHandler.HandleSignin)
		auth.POST("/refresh-token", authHandler.HandleRefreshToken)
		auth.POST("/request-password-reset", authHandler.HandleRequestPasswordReset)
		auth.POST("/reset-password", authHandler.HandleResetPassword)
	}

	// User endpoints
	user := router.Group("/user")
	user.Use(middleware.RequireAuth(tokenService))
	{
		user.GET("/fetchallusers",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Pagination(),
			userHandler.HandleListUsers)
		user.PATCH("/:id", userHandler.HandleUpdateUser)
		user.PATCH("/:id/delete", middleware.RequireOwnerOrAdmin(), userHandler.HandleDeleteUser)
	}

	// Care resources, all behind authentication
	patients := router.Group("/patients", middleware.RequireAuth(tokenService))
	{
		patients.GET("", middleware.Pagination(), patientHandler.HandleList)
		patients.GET("/:id", patientHandler.HandleGet)
		patients.GET("/:id/medications", middleware.Pagination(), medicationHandler.HandleListByPatient)
		patients.GET("/:id/handover-notes", middleware.Pagination(), noteHandler.HandleListByPatient)
		patients.POST("", middleware.RequireRoles(models.RoleAdmin), patientHandler.HandleCreate)
		patients.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin), patientHandler.HandleUpdate)
		patients.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), patientHandler.HandleDelete)
	}

	shifts := router.Group("/shifts", middleware.RequireAuth(tokenService))
	{
		shifts.GET("", middleware.Pagination(), shiftHandler.HandleList)
		shifts.GET("/:id", shiftHandler.HandleGet)
		shifts.POST("", shiftHandler.HandleCreate)
		shifts.PATCH("/:id", shiftHandler.HandleUpdate)
		shifts.DELETE("/:id", shiftHandler.HandleDelete)
	}

	medications := router.Group("/medications", middleware.RequireAuth(tokenService))
	{
		medications.GET("/:id", medicationHandler.HandleGet)
		medications.POST("", middleware.RequireRoles(models.RoleAdmin), medicationHandler.HandleCreate)
		medications.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin), medicationHandler.HandleUpdate)
		medications.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), medicationHandler.HandleDelete)
	}

	notes := router.Group("/handover-notes", middleware.RequireAuth(tokenService))
	{
		notes.GET("/:id", noteHandler.HandleGet)
		notes.POST("", noteHandler.HandleCreate)
		notes.PATCH("/:id", noteHandler.HandleUpdate)
		notes.DELETE("/:id", noteHandler.HandleDelete)
	}
}

func formatPort(port int) string {
	return fmt.Sprintf("%d", port)
}

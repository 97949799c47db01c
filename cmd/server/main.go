package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinema-ticketing-backend/internal/config"
	"cinema-ticketing-backend/internal/database"
	"cinema-ticketing-backend/internal/logging"
	"cinema-ticketing-backend/internal/metrics"
	"cinema-ticketing-backend/internal/repository"
	"cinema-ticketing-backend/internal/revocation"
	"cinema-ticketing-backend/internal/server"
	"cinema-ticketing-backend/internal/service"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log := logging.New(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize database connection
	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("failed to get database handle", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()
	log.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Database)

	// 3. Optional access token denylist
	var denylist revocation.Denylist = revocation.Noop{}
	if cfg.Redis.URL != "" {
		client, err := revocation.Connect(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		denylist = revocation.NewRedisDenylist(client)
		log.Info("access token denylist enabled")
	}

	// 4. Initialize token and password utilities
	tokens := utils.NewTokenManager(utils.TokenConfig{
		AccessSecret:       cfg.JWT.AccessSecret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		AccessTokenExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.JWT.RefreshTokenExpiry,
	})
	passwords := utils.NewPasswordHasher(cfg.Auth.BcryptCost)
	m := metrics.New()

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	refreshRepo := repository.NewRefreshTokenRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// 6. Initialize services
	authService := service.NewAuthService(userRepo, refreshRepo, auditRepo, tokens, passwords,
		service.WithDenylist(denylist),
		service.WithMetrics(m),
	)
	userService := service.NewUserService(userRepo, auditRepo)
	cleanupService := service.NewCleanupService(refreshRepo, cfg.Auth.RefreshCleanupInterval, log.With("component", "cleanup"))

	// 7. Start background cleanup in goroutine
	go cleanupService.Start(ctx)

	// 8. Setup router
	gin.SetMode(cfg.Server.GinMode)
	router, err := server.NewRouter(server.Deps{
		Logger:      log,
		CORS:        cfg.CORS,
		Tokens:      tokens,
		Users:       userRepo,
		Denylist:    denylist,
		Metrics:     m,
		AuthService: authService,
		UserService: userService,
		DB:          sqlDB,
	})
	if err != nil {
		log.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Setup graceful shutdown
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Cancel background worker context
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server exited")
}

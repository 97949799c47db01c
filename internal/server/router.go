// Package server wires handlers and middleware into the gin engine.
package server

import (
	"log/slog"

	"cinema-ticketing-backend/internal/config"
	"cinema-ticketing-backend/internal/handler"
	"cinema-ticketing-backend/internal/metrics"
	"cinema-ticketing-backend/internal/middleware"
	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/revocation"
	"cinema-ticketing-backend/internal/service"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router needs
type Deps struct {
	Logger      *slog.Logger
	CORS        config.CORSConfig
	Tokens      *utils.TokenManager
	Users       middleware.UserLookup
	Denylist    revocation.Denylist
	Metrics     *metrics.Metrics
	AuthService *service.AuthService
	UserService *service.UserService
	DB          handler.Pinger
}

// NewRouter builds the engine with every route registered
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.CORS))

	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService)
	healthHandler := handler.NewHealthHandler(d.DB)

	requireAuth := middleware.AuthMiddleware(d.Tokens, d.Users, d.Denylist)

	r.GET("/health", healthHandler.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	// User administration (admin only)
	users := r.Group("/users")
	users.Use(requireAuth, middleware.Authorize(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
		users.GET("/:id/audit-logs", userHandler.AuditLogs)
	}

	return r, nil
}

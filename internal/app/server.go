package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"realestate_backend/internal/admin"
	"realestate_backend/internal/auth"
	"realestate_backend/internal/config"
	"realestate_backend/internal/image"
	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/jobs"
	"realestate_backend/internal/middleware"
	"realestate_backend/internal/platform/messaging"
	"realestate_backend/internal/property"
	"realestate_backend/internal/review"
	"realestate_backend/internal/settings"
	"realestate_backend/internal/shared"
	"realestate_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every HTTP module mounted under /api.
type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Property *property.Handler
	Review   *review.Handler
	Inquiry  *inquiry.Handler
	Settings *settings.Handler
	Admin    *admin.Handler
	Image    *image.Handler
}

// Server holds the HTTP server and the background workers started with it.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	scheduler *jobs.Scheduler
	consumer  *messaging.Consumer
}

// NewServer builds the router and mounts every module. consumer is nil
// when property events are applied in-process.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	handlers Handlers,
	tokens shared.TokenService,
	scheduler *jobs.Scheduler,
	consumer *messaging.Consumer,
) *Server {
	router := NewRouter(cfg, logger, handlers, tokens)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		scheduler:  scheduler,
		consumer:   consumer,
	}
}

// NewRouter returns the gin engine with global middleware and all routes.
func NewRouter(cfg *config.Config, logger *zap.Logger, h Handlers, tokens shared.TokenService) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || cfg.CORSAllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokens, logger.Named("auth_middleware"))
	optionalAuthMW := middleware.OptionalAuthMiddleware(tokens)
	adminRoleMW := middleware.AdminOnly()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	if cfg.ImageStorageDriver == config.ImageDriverLocal && cfg.ImageStoragePath != "" {
		router.Static("/uploads", cfg.ImageStoragePath)
	}

	api := router.Group("/api")
	h.Auth.RegisterRoutes(api, authMW)
	h.User.RegisterRoutes(api, authMW, adminRoleMW)
	h.Property.RegisterRoutes(api, authMW, optionalAuthMW, adminRoleMW)
	h.Review.RegisterRoutes(api, authMW, adminRoleMW)
	h.Inquiry.RegisterRoutes(api, authMW, optionalAuthMW, adminRoleMW)
	h.Settings.RegisterRoutes(api, authMW, adminRoleMW)
	h.Admin.RegisterRoutes(api, authMW, adminRoleMW)
	h.Image.RegisterRoutes(api, authMW, adminRoleMW)

	return router
}

// Router exposes the engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start launches the background workers and blocks serving HTTP.
func (s *Server) Start() error {
	if s.scheduler != nil {
		if err := s.scheduler.SetupAndStart(); err != nil {
			s.logger.Error("Failed to start job scheduler", zap.Error(err))
		}
	}
	if s.consumer != nil {
		if err := s.consumer.Start(); err != nil {
			return fmt.Errorf("failed to start property event consumer: %w", err)
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown drains HTTP requests first, then stops the workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.consumer != nil {
		if cerr := s.consumer.Close(); cerr != nil {
			s.logger.Warn("Error closing property event consumer", zap.Error(cerr))
		}
	}
	return err
}

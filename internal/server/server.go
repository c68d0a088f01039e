package server

import (
	"time"

	"webinarwins/internal/auth"
	"webinarwins/internal/config"
	"webinarwins/internal/handlers"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo      *echo.Echo
	db        *sqlx.DB
	config    *config.Config
	logger    zerolog.Logger
	webinars  handlers.WebinarService
	analytics handlers.AnalyticsService
	gatherer  prometheus.Gatherer
	auth      *auth.Manager
}

// New creates a new server instance. analytics may be nil.
func New(cfg *config.Config, db *sqlx.DB, webinars handlers.WebinarService, analytics handlers.AnalyticsService, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		logger:    logger,
		webinars:  webinars,
		analytics: analytics,
		gatherer:  gatherer,
		auth:      auth.NewManager(cfg.AdminUsername, cfg.AdminPassword),
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(middleware.BodyLimit("32M"))

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api.GET("/", handlers.RootHandler(s.config.Version))
	api.POST("/auth/login", handlers.LoginHandler(s.auth, s.logger))

	// uploads, generation and delivery need an operator token when credentials are set
	requireAuth := auth.Middleware(s.auth)

	api.POST("/webinars", handlers.UploadWebinarHandler(s.webinars, s.logger), requireAuth)
	api.GET("/webinars/:id", handlers.GetWebinarHandler(s.webinars, s.logger))
	api.GET("/webinars/:id/attendees", handlers.ListAttendeesHandler(s.webinars, s.logger))
	api.POST("/webinars/:id/generate-emails", handlers.GenerateEmailsHandler(s.webinars, s.logger), requireAuth)
	api.GET("/webinars/:id/emails", handlers.ListEmailsHandler(s.webinars, s.logger))
	api.POST("/webinars/:id/send-no-shows", handlers.SendNoShowsHandler(s.webinars, s.logger), requireAuth)
	api.POST("/emails/:id/send", handlers.SendEmailHandler(s.webinars, s.logger), requireAuth)

	if s.analytics != nil {
		api.GET("/analytics", handlers.AnalyticsHandler(s.analytics, s.logger))
		api.GET("/analytics/daily-report", handlers.DailyReportHandler(s.analytics, s.logger))
	}
}

// Handler exposes the configured router, mainly for tests
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}

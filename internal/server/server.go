// Package server wires the HTTP API together: storage, the chain
// gateway, middleware and routes.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/lekhpal/landchain/internal/adminops"
	"github.com/lekhpal/landchain/internal/auth"
	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/config"
	"github.com/lekhpal/landchain/internal/health"
	"github.com/lekhpal/landchain/internal/idgen"
	"github.com/lekhpal/landchain/internal/landrequest"
	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/marketplace"
	"github.com/lekhpal/landchain/internal/metrics"
	"github.com/lekhpal/landchain/internal/ratelimit"
	"github.com/lekhpal/landchain/internal/security"
	"github.com/lekhpal/landchain/internal/users"
	"github.com/lekhpal/landchain/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg     *config.Config
	gateway adminops.Gateway
	tracker adminops.Tracker

	userStore    users.Store
	requestStore landrequest.Store
	listingStore marketplace.Store

	adminService   *adminops.Service
	requestService *landrequest.Service
	marketService  *marketplace.Service
	userService    *users.Service
	authMgr        *auth.Manager

	checks      *health.Registry
	rateLimiter *ratelimit.Limiter
	authLimiter *ratelimit.Limiter

	db      *sql.DB // nil when using in-memory stores
	router  *gin.Engine
	httpSrv *http.Server
	logger  *slog.Logger

	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGateway injects a chain gateway, bypassing the RPC dial. Used by
// tests.
func WithGateway(gw adminops.Gateway) Option {
	return func(s *Server) {
		s.gateway = gw
	}
}

// WithTracker injects a confirmation tracker. Used by tests.
func WithTracker(t adminops.Tracker) Option {
	return func(s *Server) {
		s.tracker = t
	}
}

// New creates a server instance and wires all dependencies.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
		checks: health.NewRegistry(),
	}
	s.healthy.Store(true)

	for _, opt := range opts {
		opt(s)
	}

	// Storage: Postgres when DATABASE_URL is set, in-memory otherwise.
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.userStore = users.NewPostgresStore(db)
		s.requestStore = landrequest.NewPostgresStore(db)
		s.listingStore = marketplace.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		s.checks.Register("database", func(ctx context.Context) health.Status {
			if err := db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	} else {
		s.userStore = users.NewMemoryStore()
		s.requestStore = landrequest.NewMemoryStore()
		s.listingStore = marketplace.NewMemoryStore()
		s.logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Chain gateway and tracker, unless a test injected them.
	if s.gateway == nil {
		gw, err := chain.New(chain.Config{
			RPCURL:           cfg.RPCURL,
			PrivateKey:       cfg.PrivateKey,
			ChainID:          cfg.ChainID,
			RegistryContract: cfg.RegistryContract,
			EscrowContract:   cfg.EscrowContract,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chain gateway: %w", err)
		}
		s.gateway = gw
		if s.tracker == nil {
			s.tracker = chain.NewTracker(gw)
		}

		s.checks.Register("chain", func(ctx context.Context) health.Status {
			if _, err := gw.Balance(ctx); err != nil {
				return health.Status{Name: "chain", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "chain", Healthy: true}
		})
		s.logger.Info("chain gateway ready",
			"signer", gw.SignerAddress().Hex(),
			"chain_id", cfg.ChainID,
		)
	}
	if s.tracker == nil {
		return nil, fmt.Errorf("gateway injected without a tracker")
	}

	// Services.
	s.authMgr = auth.NewManager(cfg.JWTSecret)
	s.userService = users.NewService(s.userStore)
	s.adminService = adminops.NewService(s.gateway, s.tracker, cfg.ExplorerURL)
	s.requestService = landrequest.NewService(s.requestStore, s.userStore, s.adminService)
	s.marketService = marketplace.NewService(s.listingStore, s.userStore)

	// Router.
	gin.SetMode(ginMode(cfg.Env))
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// maskDSN hides credentials in a connection string for logging.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func ginMode(env string) string {
	if env == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS allowlist: local dev frontends plus the deployed one
	s.router.Use(security.CORSMiddleware(security.DefaultOrigins(s.cfg.FrontendURL)))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	s.rateLimiter = ratelimit.New(ratelimit.DefaultConfig())
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Honor an existing request ID from a load balancer.
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.Hex(8)
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	requireAuth := auth.RequireAuth(s.authMgr, s.userStore)

	// Users: signup/login are public, the rest require a token.
	userHandler := users.NewHandler(s.userService, s.authMgr)
	// Stricter limit on the credential endpoints.
	s.authLimiter = ratelimit.New(ratelimit.AuthConfig())
	credLimit := s.authLimiter.Middleware()

	userGroup := s.router.Group("/api/users")
	{
		userGroup.POST("/signup", credLimit, userHandler.Signup)
		userGroup.POST("/login", credLimit, userHandler.Login)
		userGroup.GET("/me", requireAuth, userHandler.Me)
		userGroup.PATCH("/update", requireAuth, userHandler.UpdateProfile)
	}

	// Blockchain operations: authenticated; the chain-admin check
	// happens per action against the contract itself.
	chainGroup := s.router.Group("/api/blockchain")
	chainGroup.Use(requireAuth)
	adminops.NewHandler(s.adminService).Register(chainGroup)

	// Land requests: authenticated; admin-only routes are gated by the
	// chain-admin check inside the service.
	requestGroup := s.router.Group("/api/land-requests")
	requestGroup.Use(requireAuth)
	landrequest.NewHandler(s.requestService).Register(requestGroup)

	// Marketplace: the public listing feed and seller routes are
	// authenticated; review routes additionally need the app admin role.
	marketHandler := marketplace.NewHandler(s.marketService)
	marketGroup := s.router.Group("/api/marketplace")
	marketGroup.Use(requireAuth)
	marketHandler.Register(marketGroup)

	marketAdmin := s.router.Group("/api/marketplace")
	marketAdmin.Use(requireAuth, auth.RequireAdmin())
	marketHandler.RegisterAdmin(marketAdmin)
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.checks.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{"status": status, "checks": statuses})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Confirmation tracking can hold a request open for the full
		// two-minute window plus the post-timeout classification.
		WriteTimeout: chain.ConfirmationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("http shutdown error", "error", err)
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.authLimiter != nil {
		s.authLimiter.Stop()
	}
	if gw, ok := s.gateway.(*chain.Gateway); ok {
		gw.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.logger.Info("shutdown complete")
	return nil
}

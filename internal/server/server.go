// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
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
	"github.com/redis/go-redis/v9"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/auth"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/config"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/health"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/logging"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/metrics"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/ratelimit"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/realtime"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/sanctions"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/screening"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/security"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/tasks"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/traces"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/tron"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/validation"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/webreputation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	cache        *sanctions.Cache
	tronClient   *tron.Client
	webrep       *webreputation.Client
	screeningSvc *screening.Service
	authMgr      *auth.Manager
	queue        *tasks.Queue
	worker       *tasks.Worker
	realtimeHub  *realtime.Hub
	healthReg    *health.Registry
	rateLimiter  *ratelimit.Limiter
	redisClient  *redis.Client
	db           *sql.DB // nil if using in-memory
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc         // cancels background goroutines started in Run
	traceStop    func(context.Context) error

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set logger)
	for _, opt := range opts {
		opt(s)
	}

	// Context for initialization
	ctx := context.Background()

	// Tracing (no-op when OTLP_ENDPOINT is unset)
	traceStop, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.traceStop = traceStop
	}

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var screeningStore screening.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		// API keys with Postgres
		authStore := auth.NewPostgresStore(db)
		if err := authStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate auth store", "error", err)
		}
		s.authMgr = auth.NewManager(authStore)

		// Audit events with Postgres
		eventStore := screening.NewPostgresStore(db)
		if err := eventStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate screening store", "error", err)
		}
		screeningStore = eventStore
		s.logger.Info("audit trail enabled")
	} else {
		s.logger.Info("using in-memory storage (data will not persist)")
		s.authMgr = auth.NewManager(auth.NewMemoryStore())
		screeningStore = screening.NewMemoryStore()
	}

	if cfg.AdminSecret == "" {
		s.logger.Warn("ADMIN_SECRET not set, key issuance requires an existing admin key")
	}

	// Sanctions dataset cache
	s.cache = sanctions.NewCache(sanctions.Config{
		URL:             cfg.SanctionsDataURL,
		Path:            cfg.CachePath(),
		RefreshInterval: cfg.CacheRefresh,
		FetchTimeout:    cfg.FetchTimeout,
		UserAgent:       cfg.HTTPUserAgent,
	}, s.logger)

	// Tron explorer client
	s.tronClient = tron.NewClient(tron.ClientConfig{
		AccountURL: cfg.TronAccountURL,
		Timeout:    cfg.TronTimeout,
		UserAgent:  cfg.HTTPUserAgent,
	})

	// Web reputation upstream (optional)
	if cfg.WebReputationURL != "" {
		if err := security.ValidateEndpointURL(cfg.WebReputationURL); err != nil {
			s.logger.Warn("web reputation upstream failed safety check", "error", err)
		}
		s.webrep = webreputation.NewClient(webreputation.ClientConfig{
			BaseURL:   cfg.WebReputationURL,
			UserAgent: cfg.HTTPUserAgent,
		})
		s.logger.Info("web reputation lookups enabled")
	}

	s.screeningSvc = screening.NewService(s.cache, s.tronClient, screeningStore, s.logger)

	// Task queue (optional, requires Redis)
	redisClient, err := tasks.Connect(ctx, cfg.RedisURL)
	if err != nil {
		s.logger.Warn("redis connection failed, async screening disabled", "error", err)
	} else if redisClient != nil {
		s.redisClient = redisClient
		s.queue = tasks.NewQueue(redisClient, cfg.TaskTTL)
		s.logger.Info("task queue enabled", "workers", cfg.TaskWorkers)
	} else {
		s.logger.Info("REDIS_URL not set, async screening disabled")
	}

	// Create realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger)

	// Workers process queued screenings and publish lifecycle events
	if s.queue != nil {
		runner := tasks.NewScreeningRunner(s.screeningSvc)
		s.worker = tasks.NewWorker(s.queue, runner, s.realtimeHub, cfg.TaskWorkers, s.logger)
	}

	s.setupHealthChecks()

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
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

// -----------------------------------------------------------------------------
// Health checks
// -----------------------------------------------------------------------------

func (s *Server) setupHealthChecks() {
	s.healthReg = health.NewRegistry()

	s.healthReg.Register("sanctions_dataset", func(ctx context.Context) health.Status {
		report := s.screeningSvc.Status(ctx)
		st := health.Status{
			Name:    "sanctions_dataset",
			Healthy: report.Sanctions.State != screening.StateUnavailable,
		}
		if report.Sanctions.Detail != "" {
			st.Detail = report.Sanctions.Detail
		}
		return st
	})

	if s.db != nil {
		s.healthReg.Register("postgres", func(ctx context.Context) health.Status {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := s.db.PingContext(ctx); err != nil {
				return health.Status{Name: "postgres", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "postgres", Healthy: true}
		})
	}

	if s.queue != nil {
		s.healthReg.Register("redis", func(ctx context.Context) health.Status {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := s.queue.Health(ctx); err != nil {
				return health.Status{Name: "redis", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "redis", Healthy: true}
		})
	}
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
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins; the API carries no browser credentials)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPM > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	}
	s.rateLimiter = ratelimit.New(rlCfg)
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
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
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

		// Log level based on status code
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
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group with soft authentication: every request may carry a key,
	// individual routes enforce the scope they need.
	v1 := s.router.Group("/v1")
	v1.Use(auth.Middleware(s.authMgr))

	screeningHandler := screening.NewHandler(s.screeningSvc)
	authHandler := auth.NewHandler(s.authMgr)

	// PUBLIC ROUTES (no scope required)
	v1.GET("/auth/info", authHandler.Info)
	v1.GET("/screening/status", screeningHandler.Status)

	// SCREENING ROUTES (scoped per endpoint)
	v1.POST("/sanctions/search", auth.RequireScope(auth.ScopeSanctionsRead), screeningHandler.SearchSanctions)
	v1.POST("/tron/reputation", auth.RequireScope(auth.ScopeTronRead), screeningHandler.AssessAccount)
	v1.GET("/screening/events", auth.RequireScope(auth.ScopeAdmin), screeningHandler.ListEvents)

	// Web reputation proxy
	webGroup := v1.Group("", auth.RequireScope(auth.ScopeWebRead))
	webreputation.NewHandler(s.webrep).RegisterRoutes(webGroup)

	// Async screening tasks
	taskGroup := v1.Group("", auth.RequireScope(auth.ScopeTasksWrite))
	tasks.NewHandler(s.queue).RegisterRoutes(taskGroup)

	// ADMIN ROUTES (X-Admin-Secret header or an admin-scoped key)
	admin := v1.Group("/admin")
	admin.Use(auth.RequireAdmin(s.cfg.AdminSecret))
	{
		authHandler.RegisterAdminRoutes(admin)
		admin.GET("/stats", s.statsHandler)
		admin.POST("/dataset/refresh", s.datasetRefreshHandler)
	}
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"version":   "1.0.0",
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
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

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "InstaKYC Screening",
		"description": "Sanctions screening and Tron account risk scoring gateway",
		"version":     "1.0.0",
		"endpoints": gin.H{
			"search":     "POST /v1/sanctions/search",
			"reputation": "POST /v1/tron/reputation",
			"web":        "POST /v1/web/reputation",
			"tasks":      "POST /v1/tasks",
			"status":     "GET /v1/screening/status",
			"stream":     "GET /ws",
		},
	})
}

// statsHandler returns runtime stats for operators.
// GET /v1/admin/stats
func (s *Server) statsHandler(c *gin.Context) {
	stats := gin.H{
		"realtime": s.realtimeHub.Stats(),
		"storage":  "memory",
		"queue":    s.queue != nil,
	}
	if s.db != nil {
		stats["storage"] = "postgres"
	}
	if snap := s.cache.Snapshot(); snap != nil {
		stats["dataset"] = gin.H{
			"records":  len(snap.Records),
			"loadedAt": snap.LoadedAt,
			"stale":    snap.Stale,
		}
	}
	c.JSON(http.StatusOK, stats)
}

// datasetRefreshHandler forces a sanctions dataset refresh attempt.
// POST /v1/admin/dataset/refresh
func (s *Server) datasetRefreshHandler(c *gin.Context) {
	snap, err := s.cache.EnsureFresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "refresh_failed",
			"message": "Dataset could not be refreshed: " + err.Error(),
		})
		return
	}

	s.realtimeHub.BroadcastDatasetRefresh(len(snap.Records), snap.Stale)

	c.JSON(http.StatusOK, gin.H{
		"records":  len(snap.Records),
		"loadedAt": snap.LoadedAt,
		"stale":    snap.Stale,
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Start task workers
	if s.worker != nil {
		go s.worker.Start(runCtx)
	}

	// Start DB stats collector
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Warm the dataset cache and keep it fresh in the background
	go s.datasetRefreshLoop(runCtx)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
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

// datasetRefreshLoop warms the sanctions cache at startup and re-checks
// freshness periodically so interactive searches rarely pay the download.
func (s *Server) datasetRefreshLoop(ctx context.Context) {
	refresh := func() {
		snap, err := s.cache.EnsureFresh(ctx)
		if err != nil {
			s.logger.Warn("sanctions dataset refresh failed", "error", err)
			return
		}
		s.realtimeHub.BroadcastDatasetRefresh(len(snap.Records), snap.Stale)
	}

	refresh()

	interval := s.cfg.CacheRefresh / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, workers, refresh loop)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop task workers
	if s.worker != nil {
		s.worker.Stop()
		s.logger.Info("task workers stopped")
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Close redis connection
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	// Flush traces
	if s.traceStop != nil {
		if err := s.traceStop(ctx); err != nil {
			s.logger.Warn("trace shutdown error", "error", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// Package server wires the HTTP API together.
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

	"github.com/tmnguyen/scamshield/internal/blocklist"
	"github.com/tmnguyen/scamshield/internal/callsession"
	"github.com/tmnguyen/scamshield/internal/classify"
	"github.com/tmnguyen/scamshield/internal/config"
	"github.com/tmnguyen/scamshield/internal/llm"
	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/metrics"
	"github.com/tmnguyen/scamshield/internal/profile"
	"github.com/tmnguyen/scamshield/internal/quota"
	"github.com/tmnguyen/scamshield/internal/ratelimit"
	"github.com/tmnguyen/scamshield/internal/realtime"
	"github.com/tmnguyen/scamshield/internal/reputation"
	"github.com/tmnguyen/scamshield/internal/security"
	"github.com/tmnguyen/scamshield/internal/voiceprint"
)

// DefaultUserID identifies the device owner when no X-User-ID header is
// present. The app is device-scoped; the header exists for multi-profile
// deployments and tests.
const DefaultUserID = "local"

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	rateLimiter *ratelimit.Limiter

	model      llm.Client
	reputation *reputation.Service
	classifier *classify.Classifier
	scorer     *classify.ContextScorer
	profiles   *profile.Service
	gate       *quota.Gate
	limits     quota.Limits
	blocklist  *blocklist.Service
	voiceStore voiceprint.Store
	scanner    *voiceprint.Scanner
	hub        *realtime.Hub
	sessions   *callsession.Manager

	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

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

// WithModel injects a generative-model client (for testing)
func WithModel(model llm.Client) Option {
	return func(s *Server) {
		s.model = model
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var (
		repStore   reputation.Store
		quotaStore quota.Store
		blkStore   blocklist.Store
		profStore  profile.Store
		voiceStore voiceprint.Store
	)
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
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		reputationPG := reputation.NewPostgresStore(db)
		if err := reputationPG.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate reputation store", "error", err)
		}
		repStore = reputationPG

		quotaPG := quota.NewPostgresStore(db)
		if err := quotaPG.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate quota store", "error", err)
		}
		quotaStore = quotaPG

		blkPG := blocklist.NewPostgresStore(db)
		if err := blkPG.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate blocklist store", "error", err)
		}
		blkStore = blkPG

		profPG := profile.NewPostgresStore(db)
		if err := profPG.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate profile store", "error", err)
		}
		profStore = profPG

		voicePG := voiceprint.NewPostgresStore(db)
		if err := voicePG.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate voiceprint store", "error", err)
		}
		voiceStore = voicePG
	} else {
		s.logger.Info("using in-memory storage (data will not persist)")
		repStore = reputation.NewMemoryStore()
		quotaStore = quota.NewMemoryStore()
		blkStore = blocklist.NewMemoryStore()
		profStore = profile.NewMemoryStore()
		voiceStore = voiceprint.NewMemoryStore()
	}

	// Generative model (nil keeps everything on the offline paths)
	if s.model == nil && cfg.ModelEnabled() {
		s.model = llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		s.logger.Info("generative model enabled", "model", cfg.GeminiModel)
	}
	if s.model == nil {
		s.logger.Info("generative model disabled, offline classification only")
	}

	s.reputation = reputation.NewService(repStore, cfg.DefaultRegion)
	s.classifier = classify.NewClassifier(s.model, cfg.ClassifyTimeout)
	s.scorer = classify.NewContextScorer()
	s.profiles = profile.NewService(profStore, cfg.DefaultRegion)
	s.limits = quota.Limits{
		DeepfakeScans: cfg.FreeDeepfakeScans,
		MessageScans:  cfg.FreeMessageScans,
		CallLookups:   cfg.FreeCallLookups,
	}
	s.gate = quota.NewGate(quotaStore, s.limits, s.profiles)
	s.blocklist = blocklist.NewService(blkStore, cfg.DefaultRegion)
	s.voiceStore = voiceStore
	s.scanner = voiceprint.NewScanner(s.model, cfg.ClassifyTimeout)

	s.hub = realtime.NewHub(s.logger)

	s.sessions = callsession.NewManager(ctx,
		s.reputation,
		&historyAdapter{s.profiles},
		s.hub,
		&settingsAdapter{s.profiles},
		s.blocklist,
		callsession.Options{
			AutoHangupScore: cfg.AutoHangupScore,
			AutoHangupGrace: cfg.AutoHangupGrace,
			Dwell:           cfg.SessionDwell,
		},
	)

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

	// CORS for the mobile app and browser extension clients
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// User identity
	s.router.Use(s.identityMiddleware())

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

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// identityMiddleware resolves the acting user. Device-scoped installs get
// the default user; X-User-ID overrides.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = DefaultUserID
		}
		c.Set("user_id", userID)
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
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for the live call overlay
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request, c.GetString("user_id"))
	})

	s.router.GET("/api", s.infoHandler)

	v1 := s.router.Group("/v1")

	reputation.NewHandler(s.reputation).
		RegisterRoutes(v1, quota.Middleware(s.gate, quota.FeatureCallLookup))
	classify.NewHandler(s.classifier, s.scorer).
		RegisterRoutes(v1, quota.Middleware(s.gate, quota.FeatureMessageScan))
	voiceprint.NewHandler(s.voiceStore, s.scanner).
		RegisterRoutes(v1, quota.Middleware(s.gate, quota.FeatureDeepfakeScan))
	callsession.NewHandler(s.sessions).RegisterRoutes(v1)
	blocklist.NewHandler(s.blocklist).RegisterRoutes(v1)
	profile.NewHandler(s.profiles).RegisterRoutes(v1)
	quota.NewHandler(s.gate, s.limits).RegisterRoutes(v1)
}

// -----------------------------------------------------------------------------
// Info and health handlers
// -----------------------------------------------------------------------------

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "scamshield",
		"version": "0.1.0",
		"model":   s.model != nil,
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	checks := make(map[string]string)

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "in-memory"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	for _, v := range checks {
		if v == "unhealthy" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"version":   "0.1.0",
		"checks":    checks,
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

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the server and blocks until a shutdown signal or context
// cancellation.
func (s *Server) Run(ctx context.Context) error {
	// Cancellable context for background goroutines so Shutdown() can stop them.
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

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	// Mark as ready after brief delay for startup
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

// Shutdown drains the HTTP server and stops all background work.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for background goroutines (hub)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var shutdownErr error
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			shutdownErr = err
		}
	}

	// Cancel session timers and pending lookups
	s.sessions.Close()
	s.logger.Info("call sessions stopped")

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return shutdownErr
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

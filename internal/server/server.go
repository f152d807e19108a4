// Package server contains the HTTP handlers for the web (cookie and
// template) and API (bearer JSON) surfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"noticeboard/internal/auth"
	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/middleware"
	"noticeboard/internal/models"
	"noticeboard/internal/repository"
	"noticeboard/internal/service"
	"noticeboard/internal/storage"
	"noticeboard/internal/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Surface selects which set of routes an app serves.
type Surface int

const (
	// SurfaceWeb serves HTML pages and authenticates with the access_token cookie.
	SurfaceWeb Surface = iota
	// SurfaceAPI serves JSON and authenticates with an Authorization: Bearer header.
	SurfaceAPI
)

func (s Surface) String() string {
	if s == SurfaceAPI {
		return "api"
	}
	return "web"
}

// The HTTP collectors register on the default registry, which allows one
// instance per process.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("noticeboard")
})

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	blobs  storage.BlobStore
	logger *slog.Logger
	app    *fiber.App

	tokens      *auth.TokenIssuer
	resolver    *auth.SessionResolver
	rateLimiter *middleware.RateLimiter

	userService         *service.UserService
	postService         *service.PostService
	notificationService *service.NotificationService
}

// NewServerWithDeps creates a Server over already-initialized dependencies.
// redisClient may be nil; rate limiting then fails open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) (*Server, error) {
	if cfg == nil || db == nil || blobs == nil {
		return nil, errors.New("server: config, database and blob store are required")
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db))

	return &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		blobs:       blobs,
		logger:      slog.Default(),
		tokens:      tokens,
		resolver:    auth.NewSessionResolver(tokens, userRepo),
		rateLimiter: authRateLimiter(cfg, redisClient),
		userService: service.NewUserService(userRepo, hasher),
		postService: service.NewPostService(
			repository.NewPostRepository(db),
			repository.NewTransactor(db),
			notifications,
			blobs,
			cfg.BlobBucket,
		),
		notificationService: notifications,
	}, nil
}

// authRateLimiter guards signup and signin. It fails open unless
// RATE_LIMIT_FAIL_CLOSED is set.
func authRateLimiter(cfg *config.Config, rdb *redis.Client) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(rdb, cfg.Env)
	if cfg.RateLimitFailClosed {
		return limiter.WithPolicy(middleware.FailClosed)
	}
	return limiter
}

// NewApp builds a Fiber app serving surface.
func (s *Server) NewApp(surface Surface) (*fiber.App, error) {
	fc := fiber.Config{
		AppName:      "noticeboard-" + surface.String(),
		ErrorHandler: errorHandler,
	}
	if s.config.MaxUploadMB > 0 {
		fc.BodyLimit = s.config.MaxUploadMB * 1024 * 1024
	}
	if surface == SurfaceWeb {
		engine := html.NewFileSystem(http.FS(web.Templates()), ".html")
		if err := engine.Load(); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		fc.Views = engine
	}

	app := fiber.New(fc)
	s.SetupMiddleware(app)
	s.setupCommonRoutes(app)
	switch surface {
	case SurfaceAPI:
		s.SetupAPIRoutes(app)
	default:
		s.SetupWebRoutes(app)
	}
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(httpMetrics().Middleware)

	// Uploaded files are served from the blob store's origin, so embedders
	// must not be forced to send CORP headers.
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}))

	app.Use(middleware.StructuredLogger(s.logger))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global guard: 100 requests per minute per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

func (s *Server) setupCommonRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	httpMetrics().RegisterAt(app, "/metrics")

	if mem, ok := s.blobs.(*storage.MemoryStore); ok {
		app.Get("/blobs/:bucket/:object", serveMemoryBlob(mem))
	}
}

// errorHandler turns anything a handler returns, including recovered panics,
// into a JSON error. 5xx responses never carry internal detail.
func errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// Run serves surface on the configured port until ctx is cancelled, then
// shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, surface Surface) error {
	app, err := s.NewApp(surface)
	if err != nil {
		return err
	}
	s.app = app

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("surface", surface.String()), slog.String("port", s.config.Port))
		errCh <- app.Listen(":" + s.config.Port)
	}()

	select {
	case err := <-errCh:
		_ = s.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		slog.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}

// Package server contains the HTTP handlers and routing for the marketplace.
package server

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"bazaar/internal/config"
	"bazaar/internal/database"
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "bazaar_session"

const (
	sessionDuration  = 7 * 24 * time.Hour
	rememberDuration = 30 * 24 * time.Hour
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	listingRepo    repository.ListingRepository
	authService    *service.AuthService
	accountService *service.AccountService
	listingService *service.ListingService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, connectRedis(cfg.RedisURL)), nil
}

// fiberprometheus registers its collectors with the default registry at
// construction time, so the middleware is created once per process no matter
// how many Server instances exist.
var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

func metricsMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New("bazaar-api")
	})
	return promInstance
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	images := service.NewImageService()

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: metricsMiddleware(),
		userRepo:       userRepo,
		listingRepo:    listingRepo,
		authService:    service.NewAuthService(userRepo),
		accountService: service.NewAccountService(userRepo, images, cfg.ProfileImageDir),
		listingService: service.NewListingService(listingRepo, userRepo, images, cfg.ListingImageDir),
	}

	return server
}

// connectRedis opens the optional Redis connection used for session
// revocation. A missing Redis only degrades logout to cookie clearing.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}

	var client *redis.Client
	if opts, err := redis.ParseURL(redisURL); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, session revocation disabled", "error", err.Error())
		_ = client.Close()
		return nil
	}
	return client
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and user ID into the request context
	app.Use(middleware.ContextMiddleware())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Stored images
	app.Static("/media/profile", s.config.ProfileImageDir)
	app.Static("/media/listing", s.config.ListingImageDir)

	// Public feed
	app.Get("/", s.Feed)
	app.Get("/home", s.Feed)
	app.Get("/user/:username", s.UserListings)

	// Auth
	app.Get("/register", s.RegisterPage)
	app.Post("/register", s.Register)
	app.Get("/login", s.LoginPage)
	app.Post("/login", s.Login)
	app.Get("/logout", s.Logout)

	// Account (protected)
	app.Get("/account", s.AuthRequired(), s.GetAccount)
	app.Post("/account", s.AuthRequired(), s.UpdateAccount)

	// Listings. /post/new must be registered before /post/:id.
	app.Get("/post/new", s.AuthRequired(), s.NewListingPage)
	app.Post("/post/new", s.AuthRequired(), s.CreateListing)
	app.Get("/post/:id", s.GetListing)
	app.Get("/post/:id/update", s.AuthRequired(), s.UpdateListingPage)
	app.Post("/post/:id/update", s.AuthRequired(), s.UpdateListing)
	app.Post("/post/:id/delete", s.AuthRequired(), s.DeleteListing)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; report its state without failing readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// generateToken creates a signed session token for the given user.
// remember extends the session lifetime.
func (s *Server) generateToken(userID uint, remember bool) (string, time.Time, error) {
	if s.config.SessionSecret == "" {
		return "", time.Time{}, fmt.Errorf("session secret not configured")
	}

	duration := sessionDuration
	if remember {
		duration = rememberDuration
	}

	now := time.Now()
	expiry := now.Add(duration)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": "bazaar-api",
		"aud": "bazaar-client",
		"exp": expiry.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// sessionToken extracts the raw token from the session cookie, falling back
// to an Authorization Bearer header.
func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseSessionClaims validates a raw token and returns its claims.
func (s *Server) parseSessionClaims(c *fiber.Ctx, tokenString string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "bazaar-api" {
		return nil, false
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "bazaar-client" {
		return nil, false
	}

	// Revoked sessions (logout) are blacklisted by jti.
	if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
		revoked, err := s.redis.Exists(c.Context(), "session_blacklist:"+jti).Result()
		if err == nil && revoked > 0 {
			return nil, false
		}
	}

	return claims, true
}

// claimsUserID extracts the user ID from the subject claim.
func claimsUserID(claims jwt.MapClaims) (uint, bool) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// AuthRequired returns the session middleware. Requests without a valid
// identity are redirected to the login page carrying the originally
// requested path, so login can resume there.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := sessionToken(c)
		if tokenString == "" {
			return s.redirectToLogin(c)
		}

		claims, ok := s.parseSessionClaims(c, tokenString)
		if !ok {
			return s.redirectToLogin(c)
		}

		userID, ok := claimsUserID(claims)
		if !ok {
			return s.redirectToLogin(c)
		}

		c.Locals("userID", userID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func (s *Server) redirectToLogin(c *fiber.Ctx) error {
	next := url.QueryEscape(c.OriginalURL())
	return c.Redirect("/login?next="+next, fiber.StatusSeeOther)
}

// currentUserID attempts to extract the authenticated user ID but does not enforce it.
func (s *Server) currentUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := sessionToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, ok := s.parseSessionClaims(c, tokenString)
	if !ok {
		return 0, false
	}
	return claimsUserID(claims)
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Bazaar",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

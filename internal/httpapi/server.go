// Package httpapi exposes the DataStore contract over HTTP. The cloud-role
// Server authenticates each request against internal/auth's CloudAuthService
// and dispatches to a RemoteDataStore scoped to the resulting user id; the
// device-role Server serves one signed-in user's store directly, with no
// per-request auth.
package httpapi

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/relentnet/matchops-sync/internal/auth"
	"github.com/relentnet/matchops-sync/internal/store"
	"github.com/relentnet/matchops-sync/internal/store/remotestore"
	"github.com/relentnet/matchops-sync/internal/store/syncedstore"
)

const (
	hstsMaxAge            = 5184000
	rateLimitMax           = 120
	rateLimitExpiration    = time.Minute
	defaultAllowedOrigins  = "https://app.matchops.example"
)

// Server holds the Fiber app and the dependencies its handlers dispatch to.
// In cloud role each request gets a RemoteDataStore scoped to its JWT's
// user; in device role every request shares the one signed-in user's store.
type Server struct {
	App   *fiber.App
	pool  *pgxpool.Pool
	redis *redis.Client
	cloud *auth.CloudAuthService

	// device role only
	fixed store.DataStore
	local *auth.LocalAuthService
}

// New builds a Server. cloud may be nil if LOGTO_ENDPOINT is not configured,
// in which case every protected route fails closed with 503 rather than
// panicking.
func New(pool *pgxpool.Pool, redisClient *redis.Client, cloud *auth.CloudAuthService) *Server {
	app := fiber.New(fiber.Config{
		AppName: "matchops-sync",
	})
	s := &Server{App: app, pool: pool, redis: redisClient, cloud: cloud}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// NewDevice builds a Server over one signed-in user's DataStore — the
// local-first half. There is no JWT to validate: every request acts as the
// session's user, and localAuth answers the auth endpoints with the frozen
// local identity.
func NewDevice(ds store.DataStore, localAuth *auth.LocalAuthService) *Server {
	app := fiber.New(fiber.Config{
		AppName: "matchops-sync",
	})
	s := &Server{App: app, fixed: ds, local: localAuth}
	s.setupMiddleware()
	s.setupDeviceRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.App.Use(logger.New())

	s.App.Use(func(c *fiber.Ctx) error {
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Download-Options", "noopen")
		c.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", hstsMaxAge))
		c.Set("X-Frame-Options", "SAMEORIGIN")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		return c.Next()
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = defaultAllowedOrigins
	}
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	s.App.Use(limiter.New(limiter.Config{
		Max:        rateLimitMax,
		Expiration: rateLimitExpiration,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
}

func (s *Server) setupRoutes() {
	s.App.Get("/health", s.healthCheck)
	s.App.Post("/auth/sign-in", s.handleSignIn)
	s.App.Post("/auth/sign-out", s.requireAuth, s.handleSignOut)
	s.App.Get("/auth/me", s.requireAuth, s.handleGetCurrentUser)

	api := s.App.Group("/", s.requireAuth)
	registerEntityRoutes(s, api)
}

func (s *Server) setupDeviceRoutes() {
	s.App.Get("/health", s.deviceHealthCheck)
	s.App.Post("/auth/sign-in", s.handleLocalUser)
	s.App.Post("/auth/sign-out", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	s.App.Get("/auth/me", s.handleLocalUser)
	s.App.Get("/sync/status", s.handleSyncStatus)

	registerEntityRoutes(s, s.App.Group("/"))
}

// deviceHealthCheck reports the session store's availability; there is no
// Postgres or Redis to ping from this side.
func (s *Server) deviceHealthCheck(c *fiber.Ctx) error {
	status := "healthy"
	if !s.fixed.IsAvailable() {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"backend": s.fixed.BackendName(),
	})
}

// handleLocalUser answers sign-in and current-user lookups with the frozen
// local identity; there are no credentials in device role.
func (s *Server) handleLocalUser(c *fiber.Ctx) error {
	u, err := s.local.GetCurrentUser(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Status: "unauthorized", Error: err.Error()})
	}
	return c.JSON(u)
}

// handleSyncStatus exposes the engine's observable snapshot when the session
// store is sync-aware; a plain local store reports sync as disabled.
func (s *Server) handleSyncStatus(c *fiber.Ctx) error {
	synced, ok := s.fixed.(*syncedstore.SyncedDataStore)
	if !ok {
		return c.JSON(fiber.Map{"state": "disabled"})
	}
	return c.JSON(synced.GetSyncStatus())
}

// healthCheck reports Postgres/Redis reachability.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	status := "healthy"
	dbStatus := "healthy"
	redisStatus := "healthy"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		status = "degraded"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}

// newRemoteStore builds a RemoteDataStore scoped to userID, returned as the
// store.DataStore interface so handlers depend on the contract rather than
// the concrete backend. online/sessionValid are left nil (always true):
// the request already made it through requireAuth, and HTTP handlers have
// no notion of "offline".
func (s *Server) newRemoteStore(userID string) store.DataStore {
	return remotestore.New(s.pool, s.redis, userID, nil, nil)
}

// bearerToken extracts Authorization: Bearer <token>, falling back to an
// access_token cookie.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Cookies("access_token")
}

// requireAuth validates the bearer token against the CloudAuthService JWKS
// and stashes the resulting user id in c.Locals("user_id") for handlers.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	if s.cloud == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "cloud auth not configured"})
	}
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authentication"})
	}
	user, err := s.cloud.SetCurrentSession(token)
	if err != nil {
		log.Printf("[HTTP] auth failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
	}
	c.Locals("user_id", user.ID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// withStore adapts a handler that needs a DataStore into a plain
// fiber.Handler. Device role hands every request the session's store; cloud
// role builds and initializes a store from the request's authenticated user.
func (s *Server) withStore(fn func(c *fiber.Ctx, ds store.DataStore) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.fixed != nil {
			return fn(c, s.fixed)
		}
		ds := s.newRemoteStore(userID(c))
		if err := ds.Initialize(c.Context()); err != nil {
			return writeError(c, err)
		}
		return fn(c, ds)
	}
}

// Command matchopsd runs one of the system's two halves, selected by
// MATCHOPS_ROLE:
//
//   - "cloud" (the default): the multi-user server side — exposes
//     RemoteDataStore over HTTP, authenticating each request by JWT and
//     scoping rows to the token's user.
//   - "device": the local-first side — one signed-in user's store, opened
//     with OpenUserStore (bbolt KV, mode resolution, and in cloud mode a
//     SyncedDataStore draining into the remote store), served over the same
//     HTTP API and closed with CloseUserStore on shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/relentnet/matchops-sync/internal/app"
	"github.com/relentnet/matchops-sync/internal/auth"
	"github.com/relentnet/matchops-sync/internal/config"
	"github.com/relentnet/matchops-sync/internal/httpapi"
	"github.com/relentnet/matchops-sync/internal/store/remotestore/migrations"
)

const (
	dbMaxConns        = 20
	dbMinConns        = 2
	dbMaxConnIdleTime = 30 * time.Minute
	dbMaxRetries      = 5
	dbRetryDelay      = 2 * time.Second
	defaultPort       = "8080"
)

func main() {
	_ = godotenv.Load()

	switch strings.ToLower(strings.TrimSpace(os.Getenv("MATCHOPS_ROLE"))) {
	case "device":
		runDevice()
	default:
		runCloud()
	}
}

// runCloud is the server side: Postgres, Redis, schema migrations, JWT auth,
// then the Fiber API over per-request RemoteDataStores.
func runCloud() {
	pool := connectDB()
	defer pool.Close()

	rdb := connectRedis()
	defer rdb.Close()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		if err := migrations.Up(normalizeDatabaseURL(dbURL)); err != nil {
			log.Fatalf("Unable to apply schema migrations: %v", err)
		}
	}

	var cloudAuth *auth.CloudAuthService
	if os.Getenv("LOGTO_ENDPOINT") != "" {
		cloudAuth = auth.NewCloudAuthService()
		if err := cloudAuth.Initialize(context.Background()); err != nil {
			log.Fatalf("Unable to initialize cloud auth: %v", err)
		}
	} else {
		log.Println("[Auth] LOGTO_ENDPOINT not set, cloud-mode routes will return 503")
	}

	server := httpapi.New(pool, rdb, cloudAuth)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	log.Printf("Starting matchopsd (cloud) on port %s", port)
	if err := server.App.Listen(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

// runDevice is the local-first side: open the single user's store, run the
// first-cloud-enable migration if one is pending, serve the API over that
// store, and close the store on shutdown.
func runDevice() {
	ctx := context.Background()

	userID := os.Getenv("MATCHOPS_USER_ID")
	if userID == "" {
		userID = auth.LocalUser.ID
	}

	var deps app.Deps
	if config.IsCloudAvailable() && os.Getenv("DATABASE_URL") != "" && os.Getenv("REDIS_URL") != "" {
		rdb := connectRedis()
		defer rdb.Close()

		// The migration engine closes the stores it is handed, and closing
		// the remote store closes its pool — so the run gets a pool of its
		// own, and the session gets a fresh one afterwards.
		if err := app.MigrateToCloud(ctx, userID, app.Deps{Pool: connectDB(), Redis: rdb}); err != nil {
			log.Printf("[App] cloud migration failed, continuing with queued sync: %v", err)
		}

		pool := connectDB()
		defer pool.Close()
		deps = app.Deps{Pool: pool, Redis: rdb}
	}

	session, err := app.OpenUserStore(ctx, userID, deps)
	if err != nil {
		log.Fatalf("Unable to open user store: %v", err)
	}
	defer app.CloseUserStore(ctx)

	server := httpapi.NewDevice(session.Store(), auth.NewLocalAuthService())

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	// Shut the listener down on SIGINT/SIGTERM so the deferred
	// CloseUserStore actually runs.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		_ = server.App.Shutdown()
	}()

	log.Printf("Starting matchopsd (device) on port %s for user %s in %s mode", port, userID, session.Mode())
	if err := server.App.Listen(":" + port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func normalizeDatabaseURL(databaseURL string) string {
	databaseURL = strings.TrimSpace(databaseURL)
	databaseURL = strings.Trim(databaseURL, "\"")
	databaseURL = strings.Trim(databaseURL, "'")
	if strings.HasPrefix(databaseURL, "postgres:") && !strings.HasPrefix(databaseURL, "postgres://") {
		databaseURL = strings.Replace(databaseURL, "postgres:", "postgres://", 1)
	} else if strings.HasPrefix(databaseURL, "postgresql:") && !strings.HasPrefix(databaseURL, "postgresql://") {
		databaseURL = strings.Replace(databaseURL, "postgresql:", "postgresql://", 1)
	}
	return databaseURL
}

// connectDB parses DATABASE_URL, builds the pool, and retries with a fixed
// delay before giving up.
func connectDB() *pgxpool.Pool {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	databaseURL = normalizeDatabaseURL(databaseURL)

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		log.Fatalf("Unable to parse DATABASE_URL (redacted)")
	}
	poolConfig.MaxConns = dbMaxConns
	poolConfig.MinConns = dbMinConns
	poolConfig.MaxConnIdleTime = dbMaxConnIdleTime

	var pool *pgxpool.Pool
	retries := dbMaxRetries
	for i := 0; i < retries; i++ {
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err == nil {
			if err = pool.Ping(context.Background()); err == nil {
				break
			}
		}
		log.Printf("Failed to connect to DB, retrying in %s... (%d attempts left)", dbRetryDelay, retries-i-1)
		time.Sleep(dbRetryDelay)
	}
	if err != nil {
		log.Fatalf("Unable to connect to database after retries")
	}
	log.Println("Successfully connected to PostgreSQL database")
	return pool
}

// connectRedis connects and pings, fatal on failure.
func connectRedis() *redis.Client {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Fatal("REDIS_URL must be set")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Unable to parse REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Unable to connect to Redis: %v", err)
	}
	log.Println("Successfully connected to Redis")
	return rdb
}

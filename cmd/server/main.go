/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pension management server: configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Configure structured logging
  3. Initialize the SQLite store
  4. Seed the default scheme catalogue when the database is empty
  5. Configure the HTTP router and start serving

CONFIGURATION:
  -port          HTTP server port (default: 8080, env PORT)
  -db            SQLite database path (default: pension.db, env DB_PATH)
                 Use ":memory:" for an in-memory database
  JWT_SECRET     REQUIRED. Session token signing secret; the server
                 refuses to start without it
  TOKEN_TTL      Token lifetime (default: 24h)
  ALLOW_REDECISION
                 Set to "true" to let admins overwrite decided
                 applications (default: false)
  LOG_LEVEL      debug, info, warn, error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nivesh/pension-engine/api"
	"github.com/nivesh/pension-engine/auth"
	"github.com/nivesh/pension-engine/logging"
	"github.com/nivesh/pension-engine/pension"
	"github.com/nivesh/pension-engine/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "pension.db"), "SQLite database path")
	flag.Parse()

	logging.Setup()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid TOKEN_TTL", "value", v, "error", err)
			os.Exit(1)
		}
		tokenTTL = ttl
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	apps := &pension.ApplicationService{
		AllowRedecision: os.Getenv("ALLOW_REDECISION") == "true",
	}
	handler := api.NewHandler(store, auth.NewJWTManager(secret, tokenTTL), apps)

	// Fresh databases get the default scheme catalogue.
	if n, err := store.CountSchemes(context.Background()); err == nil && n == 0 {
		created, err := handler.SeedDefaults(context.Background())
		if err != nil {
			slog.Warn("failed to seed default schemes", "error", err)
		} else {
			slog.Info("seeded default schemes", "count", created)
		}
	}

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

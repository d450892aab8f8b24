/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the depreciation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Build the tax-year registry (built-ins plus optional table file)
  3. Initialize SQLite run store
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

ENVIRONMENT:
  PORT            HTTP server port (default: 8080)
  DB_PATH         SQLite database path (default: depreciation.db)
                  Use ":memory:" for an in-memory database
  TAXYEAR_TABLE   YAML tax-year table overlaying the built-in entries
  CORS_ORIGINS    Comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/depreciation.db ./server

  # Run with a revised statutory table
  TAXYEAR_TABLE=./taxyears.yaml ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Run store implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/depreciation-engine/api"
	"github.com/warp/depreciation-engine/config"
	"github.com/warp/depreciation-engine/store/sqlite"
	"github.com/warp/depreciation-engine/taxyear"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Statutory constants: built-in entries plus the optional overlay file
	years := taxyear.NewRegistry()
	if cfg.TaxYearTable != "" {
		if err := years.LoadFile(cfg.TaxYearTable); err != nil {
			log.Fatalf("Failed to load tax year table: %v", err)
		}
		log.Printf("Loaded tax year table from %s", cfg.TaxYearTable)
	}

	// Initialize run store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(years, store)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

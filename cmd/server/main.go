// Package main is the entry point for the ThermoAI dashboard server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/thermoai/backend/internal/ai"
	"github.com/thermoai/backend/internal/api"
	"github.com/thermoai/backend/internal/ical"
	"github.com/thermoai/backend/internal/storage"
	syncsvc "github.com/thermoai/backend/internal/sync"
	"github.com/thermoai/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	addr := flag.String("addr", ":8090", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	flag.Parse()

	// Optional .env for local development; secrets normally come from the
	// process environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting ThermoAI dashboard server (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", *dataDir, err)
	}
	db, err := storage.NewDB(*dataDir + "/thermoai.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	settings := loadSettings(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	propertyRepo := storage.NewPropertyRepository(db)

	// Initialize the Gemini extraction client. Without a key the server
	// still runs the dashboard; sync endpoints report the configuration
	// error instead.
	var extractor *ai.Extractor
	aiConfigured := false
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		gemini, err := ai.NewGeminiClient(context.Background(), apiKey, settings["ai_model"])
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer gemini.Close()
		extractor = ai.NewExtractor(gemini)
		aiConfigured = true
	} else {
		log.Println("GEMINI_API_KEY not set; iCal feed extraction is disabled")
	}

	broadcaster := websocket.NewEventBroadcaster(hub)
	workers, _ := strconv.Atoi(settings["sync_workers"])
	syncService := syncsvc.NewService(propertyRepo, ical.NewFetcher(), extractor, broadcaster, workers)

	// Periodic fleet sync; the /api/sync endpoint is the manual trigger.
	scheduler := syncsvc.NewScheduler(syncService, 0)
	if aiConfigured {
		intervalMin, _ := strconv.Atoi(settings["fleet_sync_interval_min"])
		if err := scheduler.Start(intervalMin); err != nil {
			log.Printf("Warning: Failed to start fleet sync scheduler: %v", err)
		}
	}

	router := api.NewRouter(db, propertyRepo, hub, *staticDir, syncService, scheduler, aiConfigured)

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // fleet syncs stream AI calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if aiConfigured {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// loadSettings reads the settings table into a map. Missing keys fall back
// to the migration defaults.
func loadSettings(db *storage.DB) map[string]string {
	settings := map[string]string{
		"fleet_sync_interval_min": "60",
		"sync_workers":            "1",
		"ai_model":                ai.DefaultModel,
	}

	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		return settings
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		settings[key] = value
	}

	return settings
}

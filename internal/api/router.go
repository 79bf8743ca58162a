// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/thermoai/backend/internal/api/handlers"
	"github.com/thermoai/backend/internal/api/middleware"
	"github.com/thermoai/backend/internal/storage"
	syncsvc "github.com/thermoai/backend/internal/sync"
	"github.com/thermoai/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	propertyRepo *storage.PropertyRepository,
	hub *websocket.Hub,
	staticDir string,
	syncService *syncsvc.Service,
	scheduler *syncsvc.Scheduler,
	aiConfigured bool,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db, aiConfigured)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, hub, scheduler)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Property endpoints
	api.HandleFunc("/properties", handlers.ListProperties(propertyRepo)).Methods("GET")
	api.HandleFunc("/properties", handlers.CreateProperty(propertyRepo)).Methods("POST")
	api.HandleFunc("/properties/{id}", handlers.GetProperty(propertyRepo)).Methods("GET")
	api.HandleFunc("/properties/{id}", handlers.UpdateProperty(propertyRepo)).Methods("PUT")
	api.HandleFunc("/properties/{id}", handlers.DeleteProperty(propertyRepo)).Methods("DELETE")
	api.HandleFunc("/properties/{id}/sync", handlers.SyncProperty(propertyRepo, syncService)).Methods("POST")

	// Feed sync endpoints
	api.HandleFunc("/sync", handlers.SyncAllFeeds(syncService)).Methods("POST")
	api.HandleFunc("/parse-ical", handlers.ParseFeed(syncService)).Methods("POST")

	// Settings endpoints
	api.HandleFunc("/settings", handlers.GetSettings(db)).Methods("GET")
	api.HandleFunc("/settings", handlers.UpdateSettings(db, syncService, scheduler)).Methods("PUT")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

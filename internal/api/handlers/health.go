// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/thermoai/backend/internal/storage"
	syncsvc "github.com/thermoai/backend/internal/sync"
	"github.com/thermoai/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	DBConnected  bool   `json:"db_connected"`
	AIConfigured bool   `json:"ai_configured"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB, aiConfigured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:       status,
			DBConnected:  dbConnected,
			AIConfigured: aiConfigured,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	PropertiesCount  int    `json:"properties_count"`
	FeedsConfigured  int    `json:"feeds_configured"`
	ConnectedClients int    `json:"connected_clients"`
	NextFleetSyncAt  string `json:"next_fleet_sync_at,omitempty"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub, scheduler *syncsvc.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var propertiesCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&propertiesCount)

		var feedsConfigured int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties WHERE ical_url IS NOT NULL AND TRIM(ical_url) != ''").Scan(&feedsConfigured)

		response := StatusResponse{
			PropertiesCount: propertiesCount,
			FeedsConfigured: feedsConfigured,
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}
		if scheduler != nil {
			if next := scheduler.NextRun(); next != nil {
				response.NextFleetSyncAt = next.UTC().Format(time.RFC3339)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

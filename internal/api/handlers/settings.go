package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/thermoai/backend/internal/api/middleware"
	"github.com/thermoai/backend/internal/storage"
	syncsvc "github.com/thermoai/backend/internal/sync"
)

// SettingsResponse represents settings in API responses.
type SettingsResponse struct {
	FleetSyncIntervalMin string `json:"fleet_sync_interval_min"`
	SyncWorkers          string `json:"sync_workers"`
	AIModel              string `json:"ai_model"`
}

// GetSettings returns all settings.
func GetSettings(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query settings")
			return
		}
		defer rows.Close()

		settings := make(map[string]string)
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				continue
			}
			settings[key] = value
		}

		response := SettingsResponse{
			FleetSyncIntervalMin: settings["fleet_sync_interval_min"],
			SyncWorkers:          settings["sync_workers"],
			AIModel:              settings["ai_model"],
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// UpdateSettings updates settings and applies the ones that take effect at
// runtime (sync interval, worker count). A model change requires a restart.
func UpdateSettings(db *storage.DB, service *syncsvc.Service, scheduler *syncsvc.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req SettingsResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		settings := map[string]string{
			"fleet_sync_interval_min": req.FleetSyncIntervalMin,
			"sync_workers":            req.SyncWorkers,
			"ai_model":                req.AIModel,
		}

		for key, value := range settings {
			if value == "" {
				continue
			}
			_, err := db.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
			`, key, value, value)
			if err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update settings")
				return
			}
		}

		if req.FleetSyncIntervalMin != "" && scheduler != nil {
			if minutes, err := strconv.Atoi(req.FleetSyncIntervalMin); err == nil {
				scheduler.Reschedule(minutes)
			}
		}
		if req.SyncWorkers != "" && service != nil {
			if workers, err := strconv.Atoi(req.SyncWorkers); err == nil {
				service.SetWorkers(workers)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req)
	}
}

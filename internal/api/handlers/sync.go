package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/thermoai/backend/internal/api/middleware"
	"github.com/thermoai/backend/internal/storage/models"
	syncsvc "github.com/thermoai/backend/internal/sync"
)

// fleetSyncBudget bounds one fleet run triggered over HTTP. Multiple fetches
// and AI calls need room; there is no per-feed timeout below this.
const fleetSyncBudget = 540 * time.Second

// SyncAllFeeds triggers a fleet sync and returns the aggregated result.
// Individual property failures are reported in the details and do not change
// the HTTP status; only a total failure (listing properties, missing model
// credentials) yields a 500.
func SyncAllFeeds(service *syncsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), fleetSyncBudget)
		defer cancel()

		result, err := service.SyncAll(ctx)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// ParseFeedRequest is the request body for the single-feed parse action.
type ParseFeedRequest struct {
	FeedURL string `json:"feed_url"`
}

// ParseFeed runs the ingestion pipeline against one caller-supplied feed URL
// without touching any property record. Pipeline failures come back as a
// structured {success:false, error} result so the dashboard can render them
// directly.
func ParseFeed(service *syncsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParseFeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if !isValidFeedURL(req.FeedURL) {
			json.NewEncoder(w).Encode(syncsvc.FeedResult{
				Success: false,
				Events:  []models.BookingEvent{},
				Error:   "Invalid URL format for iCal feed.",
			})
			return
		}

		result := service.ParseFeed(r.Context(), req.FeedURL)
		json.NewEncoder(w).Encode(result)
	}
}

func isValidFeedURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

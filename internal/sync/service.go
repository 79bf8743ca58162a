// Package sync orchestrates the feed-ingestion pipeline across the property
// fleet: fetch, validate, AI extraction, reconciliation, persistence.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/thermoai/backend/internal/ai"
	"github.com/thermoai/backend/internal/ical"
	"github.com/thermoai/backend/internal/storage/models"
	"github.com/thermoai/backend/internal/websocket"
)

// PropertyStore is the persistence the orchestrator needs. Implemented by
// storage.PropertyRepository in production and an in-memory fake in tests.
type PropertyStore interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
	List(ctx context.Context) ([]models.Property, error)
	UpdateSyncData(ctx context.Context, id string, events []models.BookingEvent, syncErr *string) error
}

// FeedResult is the outcome of running the pipeline against one feed URL
// without a property record attached.
type FeedResult struct {
	Success bool                  `json:"success"`
	Events  []models.BookingEvent `json:"events"`
	Error   string                `json:"error,omitempty"`
}

// Service runs the ingestion pipeline per feed and across the fleet.
type Service struct {
	store       PropertyStore
	fetcher     *ical.Fetcher
	extractor   *ai.Extractor
	broadcaster *websocket.EventBroadcaster
	workers     int
}

// NewService creates a sync service. broadcaster may be nil. workers bounds
// fleet concurrency; 1 reproduces the sequential reference behavior.
func NewService(
	store PropertyStore,
	fetcher *ical.Fetcher,
	extractor *ai.Extractor,
	broadcaster *websocket.EventBroadcaster,
	workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:       store,
		fetcher:     fetcher,
		extractor:   extractor,
		broadcaster: broadcaster,
		workers:     workers,
	}
}

// SetWorkers adjusts the fleet concurrency bound for subsequent runs.
func (s *Service) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
}

// ParseFeed runs the pipeline against a single URL and reconciles the result
// for direct display. Terminal pipeline errors come back as a structured
// failure result rather than an error, so callers can render them without
// special-casing.
func (s *Service) ParseFeed(ctx context.Context, url string) *FeedResult {
	result, err := s.runPipeline(ctx, url, ical.Strict)
	if err != nil {
		return &FeedResult{Success: false, Events: []models.BookingEvent{}, Error: err.Error()}
	}

	outcome, reconciled := ai.Reconcile(result)
	switch outcome {
	case ai.OutcomeError:
		return &FeedResult{Success: false, Events: reconciled.Events, Error: reconciled.Error}
	default:
		return &FeedResult{Success: true, Events: reconciled.Events, Error: reconciled.Error}
	}
}

// SyncProperty runs the pipeline for one property and persists the attempt.
// Every failure is absorbed into the returned outcome; this method never
// propagates an error, which is what keeps one bad feed from blocking the
// rest of the fleet.
func (s *Service) SyncProperty(ctx context.Context, property models.Property) (outcome models.PropertySyncOutcome) {
	outcome = models.PropertySyncOutcome{
		PropertyID:   property.ID,
		PropertyName: property.Name,
	}

	// A panic anywhere in the pipeline is still just this property's failure.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic syncing property %s: %v", property.ID, r)
			outcome.Status = models.SyncStatusError
			outcome.Message = fmt.Sprintf("internal error: %v", r)
			s.persistFailure(ctx, property.ID, outcome.Message)
		}
	}()

	url := property.FeedURL()
	if url == "" {
		outcome.Status = models.SyncStatusSkipped
		outcome.Message = "No iCal URL configured"
		return outcome
	}

	log.Printf("Syncing iCal for property %s (%s) from %s", property.ID, property.Name, url)

	result, err := s.runPipeline(ctx, url, ical.Lenient)
	if err != nil {
		outcome.Status = statusForError(err)
		outcome.Message = err.Error()
		s.persistFailure(ctx, property.ID, outcome.Message)
		return outcome
	}

	kind, reconciled := ai.Reconcile(result)
	switch kind {
	case ai.OutcomeError:
		outcome.Status = models.SyncStatusError
		outcome.Message = reconciled.Error
		s.persistFailure(ctx, property.ID, reconciled.Error)
		return outcome
	case ai.OutcomeEmpty:
		outcome.Status = models.SyncStatusSuccess
	default:
		if reconciled.Error != "" {
			// Events plus an advisory message from the model.
			outcome.Status = models.SyncStatusSuccessAIIssue
			outcome.Message = reconciled.Error
		} else {
			outcome.Status = models.SyncStatusSuccess
		}
	}
	outcome.EventsFetched = len(reconciled.Events)

	var syncErr *string
	if outcome.Message != "" {
		msg := "AI parsing error: " + outcome.Message
		syncErr = &msg
	}
	if err := s.store.UpdateSyncData(ctx, property.ID, reconciled.Events, syncErr); err != nil {
		log.Printf("Failed to persist sync data for property %s: %v", property.ID, err)
		outcome.Status = models.SyncStatusError
		outcome.Message = err.Error()
		return outcome
	}

	log.Printf("Synced %d events for property %s", outcome.EventsFetched, property.ID)
	return outcome
}

// SyncAll runs the pipeline across every property and aggregates a fleet
// summary. Only an inability to list properties (or a missing model client)
// is an error; individual property failures are recorded in the details.
func (s *Service) SyncAll(ctx context.Context) (*models.FleetSyncResult, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("AI model client not configured")
	}

	properties, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}

	log.Printf("Starting iCal feed sync for %d properties", len(properties))

	details := make([]models.PropertySyncOutcome, len(properties))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, property := range properties {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, property models.Property) {
			defer wg.Done()
			defer func() { <-sem }()
			details[i] = s.SyncProperty(ctx, property)
			s.broadcastOutcome(details[i])
		}(i, property)
	}
	wg.Wait()

	result := &models.FleetSyncResult{
		Message:  "iCal sync process completed.",
		Details:  details,
		SyncedAt: time.Now().UTC(),
	}
	result.Summary.TotalPropertiesQueried = len(properties)
	for _, d := range details {
		switch d.Status {
		case models.SyncStatusSuccess, models.SyncStatusSuccessAIIssue:
			result.Summary.SuccessCount++
		case models.SyncStatusSkipped:
			result.Summary.SkippedCount++
		default:
			result.Summary.ErrorCount++
		}
	}

	log.Printf("Fleet sync complete. Success: %d, Errors: %d, Skipped: %d",
		result.Summary.SuccessCount, result.Summary.ErrorCount, result.Summary.SkippedCount)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFleetSyncCompleted(*result)
	}

	return result, nil
}

// runPipeline executes fetch -> shape gate -> AI extraction for one URL.
func (s *Service) runPipeline(ctx context.Context, url string, strictness ical.Strictness) (*models.ExtractionResult, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("AI model client not configured")
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := ical.Validate(body, strictness); err != nil {
		return nil, err
	}

	return s.extractor.Extract(ctx, body)
}

// persistFailure records a failed attempt: empty event list, the message,
// and the sync timestamp. The record is always touched.
func (s *Service) persistFailure(ctx context.Context, propertyID, message string) {
	if err := s.store.UpdateSyncData(ctx, propertyID, []models.BookingEvent{}, &message); err != nil {
		log.Printf("Failed to record sync error for property %s: %v", propertyID, err)
	}
}

func (s *Service) broadcastOutcome(outcome models.PropertySyncOutcome) {
	if s.broadcaster == nil {
		return
	}
	switch outcome.Status {
	case models.SyncStatusError, models.SyncStatusInvalidFeed:
		s.broadcaster.BroadcastPropertySyncError(outcome)
	default:
		s.broadcaster.BroadcastPropertySyncCompleted(outcome)
	}
}

// statusForError maps a pipeline error onto a fleet outcome status.
func statusForError(err error) string {
	var invalid *ical.InvalidFeedContentError
	if errors.As(err, &invalid) {
		return models.SyncStatusInvalidFeed
	}
	return models.SyncStatusError
}

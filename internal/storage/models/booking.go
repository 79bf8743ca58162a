package models

import "time"

// BookingEvent is one calendar entry extracted from an iCal feed.
// StartDate and EndDate are RFC 3339 UTC timestamps kept as the strings the
// extractor returned, so storing and re-serializing an event never shifts
// its timezone.
type BookingEvent struct {
	UID         string `json:"uid"`
	Summary     string `json:"summary"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Start parses the event's start timestamp.
func (e *BookingEvent) Start() (time.Time, error) {
	return time.Parse(time.RFC3339, e.StartDate)
}

// End parses the event's end timestamp.
func (e *BookingEvent) End() (time.Time, error) {
	return time.Parse(time.RFC3339, e.EndDate)
}

// ExtractionResult is the structured output of the AI extraction step.
// Error set alongside a non-empty Events list is a legal partial-success
// state; the reconciler decides how the pair is surfaced.
type ExtractionResult struct {
	Events []BookingEvent `json:"events"`
	Error  string         `json:"error,omitempty"`
}

// Sync outcome statuses recorded per property during a fleet sync.
const (
	SyncStatusSuccess        = "success"
	SyncStatusSuccessAIIssue = "success_with_ai_issues"
	SyncStatusInvalidFeed    = "error_invalid_feed_content"
	SyncStatusError          = "error_processing"
	SyncStatusSkipped        = "skipped"
)

// PropertySyncOutcome is one property's record in a fleet sync run.
type PropertySyncOutcome struct {
	PropertyID    string `json:"property_id"`
	PropertyName  string `json:"property_name"`
	Status        string `json:"status"`
	EventsFetched int    `json:"events_fetched"`
	Message       string `json:"message,omitempty"`
}

// FleetSyncSummary aggregates a fleet sync run.
type FleetSyncSummary struct {
	SuccessCount           int `json:"success_count"`
	ErrorCount             int `json:"error_count"`
	SkippedCount           int `json:"skipped_count"`
	TotalPropertiesQueried int `json:"total_properties_queried"`
}

// FleetSyncResult is the orchestrator's final result for a fleet run.
type FleetSyncResult struct {
	Message  string                `json:"message"`
	Summary  FleetSyncSummary      `json:"summary"`
	Details  []PropertySyncOutcome `json:"details"`
	SyncedAt time.Time             `json:"synced_at"`
}

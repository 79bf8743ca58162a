package websocket

import (
	"log"

	"github.com/thermoai/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastPropertySyncCompleted sends a per-property sync result.
func (b *EventBroadcaster) BroadcastPropertySyncCompleted(outcome models.PropertySyncOutcome) {
	payload := PropertySyncPayload{
		PropertyID:    outcome.PropertyID,
		PropertyName:  outcome.PropertyName,
		Status:        outcome.Status,
		EventsFetched: outcome.EventsFetched,
		Message:       outcome.Message,
	}

	b.broadcast(NewMessage(TypePropertySyncCompleted, payload))
}

// BroadcastPropertySyncError sends a per-property sync failure.
func (b *EventBroadcaster) BroadcastPropertySyncError(outcome models.PropertySyncOutcome) {
	payload := PropertySyncErrorPayload{
		PropertyID:   outcome.PropertyID,
		PropertyName: outcome.PropertyName,
		Status:       outcome.Status,
		Message:      outcome.Message,
	}

	b.broadcast(NewMessage(TypePropertySyncError, payload))
}

// BroadcastFleetSyncCompleted sends the summary of a fleet sync run.
func (b *EventBroadcaster) BroadcastFleetSyncCompleted(result models.FleetSyncResult) {
	payload := FleetSyncPayload{
		SuccessCount:           result.Summary.SuccessCount,
		ErrorCount:             result.Summary.ErrorCount,
		SkippedCount:           result.Summary.SkippedCount,
		TotalPropertiesQueried: result.Summary.TotalPropertiesQueried,
		SyncedAt:               result.SyncedAt,
	}

	b.broadcast(NewMessage(TypeFleetSyncCompleted, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}

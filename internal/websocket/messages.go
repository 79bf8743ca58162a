package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypePropertySyncCompleted MessageType = "property.sync_completed"
	TypePropertySyncError     MessageType = "property.sync_error"
	TypeFleetSyncCompleted    MessageType = "fleet.sync_completed"
	TypeNotification          MessageType = "notification"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// PropertySyncPayload is the payload for property.sync_completed events.
type PropertySyncPayload struct {
	PropertyID    string `json:"property_id"`
	PropertyName  string `json:"property_name"`
	Status        string `json:"status"`
	EventsFetched int    `json:"events_fetched"`
	Message       string `json:"message,omitempty"`
}

// PropertySyncErrorPayload is the payload for property.sync_error events.
type PropertySyncErrorPayload struct {
	PropertyID   string `json:"property_id"`
	PropertyName string `json:"property_name"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// FleetSyncPayload is the payload for fleet.sync_completed events.
type FleetSyncPayload struct {
	SuccessCount           int       `json:"success_count"`
	ErrorCount             int       `json:"error_count"`
	SkippedCount           int       `json:"skipped_count"`
	TotalPropertiesQueried int       `json:"total_properties_queried"`
	SyncedAt               time.Time `json:"synced_at"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

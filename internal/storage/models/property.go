// Package models contains the domain models for the application.
package models

import (
	"strings"
	"time"
)

// Property represents a managed rental property. A property holds at most
// one iCal feed URL; the URL is the only link to its upstream calendar.
type Property struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	ICalURL       *string        `json:"ical_url,omitempty"`
	BookingEvents []BookingEvent `json:"synced_booking_events"`
	LastSyncAt    *time.Time     `json:"last_sync_at,omitempty"`
	LastSyncError *string        `json:"last_sync_error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// FeedURL returns the property's iCal URL with surrounding whitespace
// removed, or "" when no usable URL is configured.
func (p *Property) FeedURL() string {
	if p.ICalURL == nil {
		return ""
	}
	return strings.TrimSpace(*p.ICalURL)
}

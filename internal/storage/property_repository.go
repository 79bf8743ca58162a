package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thermoai/backend/internal/storage/models"
)

// PropertyRepository provides data access for property records.
type PropertyRepository struct {
	BaseRepository
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new property.
func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) error {
	p.ID = GenerateID()
	p.CreatedAt = r.Now()
	p.UpdatedAt = r.Now()
	if p.BookingEvents == nil {
		p.BookingEvents = []models.BookingEvent{}
	}

	events, err := json.Marshal(p.BookingEvents)
	if err != nil {
		return fmt.Errorf("encoding booking events: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO properties (
			id, name, address, ical_url, synced_booking_events, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name, p.Address, p.ICalURL, string(events), p.CreatedAt, p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}

	return nil
}

// GetByID retrieves a property by its ID. Returns nil when no row matches.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT id, name, address, ical_url, synced_booking_events,
		       last_sync_at, last_sync_error, created_at, updated_at
		FROM properties WHERE id = ?
	`, id)

	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying property: %w", err)
	}

	return p, nil
}

// List retrieves all properties ordered by name.
func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, address, ical_url, synced_booking_events,
		       last_sync_at, last_sync_error, created_at, updated_at
		FROM properties
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, *p)
	}

	return properties, rows.Err()
}

// Update updates a property's editable fields.
func (r *PropertyRepository) Update(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE properties SET
			name = ?, address = ?, ical_url = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Name, p.Address, p.ICalURL, p.UpdatedAt, p.ID,
	)

	if err != nil {
		return fmt.Errorf("updating property: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", p.ID)
	}

	return nil
}

// UpdateSyncData records the outcome of a sync attempt. The record is always
// touched: on success the events replace the prior set and the error is
// cleared, on failure an empty set and the error message are stored. Either
// way the sync timestamp advances.
func (r *PropertyRepository) UpdateSyncData(ctx context.Context, id string, events []models.BookingEvent, syncErr *string) error {
	if events == nil {
		events = []models.BookingEvent{}
	}

	encoded, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding booking events: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.DB().ExecContext(ctx, `
		UPDATE properties SET
			synced_booking_events = ?, last_sync_at = ?, last_sync_error = ?, updated_at = ?
		WHERE id = ?
	`, string(encoded), now, syncErr, now, id)

	if err != nil {
		return fmt.Errorf("updating sync data: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}

	return nil
}

// Delete removes a property by ID.
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanProperty.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	p := &models.Property{}
	var events string

	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.ICalURL, &events,
		&p.LastSyncAt, &p.LastSyncError, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(events), &p.BookingEvents); err != nil {
		return nil, fmt.Errorf("decoding booking events: %w", err)
	}
	if p.BookingEvents == nil {
		p.BookingEvents = []models.BookingEvent{}
	}

	return p, nil
}

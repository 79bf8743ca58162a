package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thermoai/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return db
}

func TestPropertyCRUD(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()

	url := "https://calendar.example.com/listing.ics"
	p := &models.Property{
		Name:    "Seaside Cottage",
		Address: "1 Harbor Rd",
		ICalURL: &url,
	}

	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("creating property: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("getting property: %v", err)
	}
	if got == nil {
		t.Fatal("expected property, got nil")
	}
	if got.Name != "Seaside Cottage" {
		t.Errorf("name = %q, want Seaside Cottage", got.Name)
	}
	if got.ICalURL == nil || *got.ICalURL != url {
		t.Errorf("ical_url round trip failed: %v", got.ICalURL)
	}
	if got.BookingEvents == nil {
		t.Error("booking events should decode to an empty slice, not nil")
	}
	if got.LastSyncAt != nil {
		t.Error("a new property should have no sync timestamp")
	}

	got.Name = "Seaside Cottage (renamed)"
	got.ICalURL = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("updating property: %v", err)
	}

	updated, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("getting updated property: %v", err)
	}
	if updated.Name != "Seaside Cottage (renamed)" {
		t.Errorf("name = %q after update", updated.Name)
	}
	if updated.ICalURL != nil {
		t.Errorf("ical_url = %q, want cleared", *updated.ICalURL)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("deleting property: %v", err)
	}
	gone, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("getting deleted property: %v", err)
	}
	if gone != nil {
		t.Error("expected nil after delete")
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))

	p, err := repo.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for a missing property, got %+v", p)
	}
}

func TestListOrdersByName(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Charlie House", "Alpha Loft", "Bravo Villa"} {
		if err := repo.Create(ctx, &models.Property{Name: name}); err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
	}

	properties, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("listing properties: %v", err)
	}
	if len(properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(properties))
	}
	for i, want := range []string{"Alpha Loft", "Bravo Villa", "Charlie House"} {
		if properties[i].Name != want {
			t.Errorf("properties[%d] = %q, want %q", i, properties[i].Name, want)
		}
	}
}

func TestUpdateSyncDataRoundTrip(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()

	p := &models.Property{Name: "Lakehouse"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("creating property: %v", err)
	}

	events := []models.BookingEvent{
		{
			UID:       "booking-1@airbnb.com",
			Summary:   "Reserved",
			StartDate: "2024-08-20T15:00:00.000Z",
			EndDate:   "2024-08-23T11:00:00Z",
			Location:  "Lakehouse",
		},
		{
			UID:       "booking-2@vrbo.com",
			Summary:   "Guest: Miller",
			StartDate: "2024-09-01T00:00:00Z",
			EndDate:   "2024-09-04T00:00:00Z",
		},
	}

	if err := repo.UpdateSyncData(ctx, p.ID, events, nil); err != nil {
		t.Fatalf("recording sync data: %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("getting property: %v", err)
	}
	if len(got.BookingEvents) != 2 {
		t.Fatalf("got %d events, want 2", len(got.BookingEvents))
	}
	// Timestamps survive storage byte for byte, fractional seconds included.
	if got.BookingEvents[0].StartDate != "2024-08-20T15:00:00.000Z" {
		t.Errorf("startDate = %q, want original string preserved", got.BookingEvents[0].StartDate)
	}
	if got.LastSyncAt == nil {
		t.Error("sync timestamp should be set")
	}
	if got.LastSyncError != nil {
		t.Errorf("sync error = %q, want nil", *got.LastSyncError)
	}
}

func TestUpdateSyncDataFailureClearsEvents(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()

	p := &models.Property{Name: "Farmstay"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("creating property: %v", err)
	}

	events := []models.BookingEvent{
		{UID: "b1", Summary: "Reserved", StartDate: "2024-08-20T00:00:00Z", EndDate: "2024-08-21T00:00:00Z"},
	}
	if err := repo.UpdateSyncData(ctx, p.ID, events, nil); err != nil {
		t.Fatalf("recording successful sync: %v", err)
	}

	msg := "Failed to fetch iCal feed: 404 Not Found"
	if err := repo.UpdateSyncData(ctx, p.ID, nil, &msg); err != nil {
		t.Fatalf("recording failed sync: %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("getting property: %v", err)
	}
	if len(got.BookingEvents) != 0 {
		t.Errorf("got %d events after a failed sync, want 0", len(got.BookingEvents))
	}
	if got.LastSyncError == nil || *got.LastSyncError != msg {
		t.Errorf("sync error = %v, want %q", got.LastSyncError, msg)
	}
	if got.LastSyncAt == nil {
		t.Error("failed syncs still advance the sync timestamp")
	}
}

func TestUpdateSyncDataMissingProperty(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))

	err := repo.UpdateSyncData(context.Background(), "no-such-id", nil, nil)
	if err == nil {
		t.Fatal("expected an error for a missing property")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want a not-found message", err)
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if id == "" {
			t.Fatal("GenerateID returned empty string")
		}
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	stdsync "sync"
	"testing"
	"time"

	"github.com/thermoai/backend/internal/ai"
	"github.com/thermoai/backend/internal/ical"
	"github.com/thermoai/backend/internal/storage/models"
)

// memoryStore is an in-memory PropertyStore for tests.
type memoryStore struct {
	mu         stdsync.Mutex
	properties map[string]*models.Property
	order      []string
	listErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{properties: make(map[string]*models.Property)}
}

func (m *memoryStore) add(p models.Property) {
	m.properties[p.ID] = &p
	m.order = append(m.order, p.ID)
}

func (m *memoryStore) GetByID(ctx context.Context, id string) (*models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *memoryStore) List(ctx context.Context) ([]models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Property, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.properties[id])
	}
	return out, nil
}

func (m *memoryStore) UpdateSyncData(ctx context.Context, id string, events []models.BookingEvent, syncErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return fmt.Errorf("property not found: %s", id)
	}
	p.BookingEvents = events
	p.LastSyncError = syncErr
	now := time.Now().UTC()
	p.LastSyncAt = &now
	return nil
}

// countingGenerator returns a canned response and counts model calls.
type countingGenerator struct {
	mu       stdsync.Mutex
	response string
	calls    int
}

func (g *countingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.response, nil
}

func (g *countingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

const twoEventResponse = `{
	"events": [
		{"uid": "b1", "summary": "Guest: Smith", "startDate": "2024-08-20T15:00:00Z", "endDate": "2024-08-23T11:00:00Z"},
		{"uid": "b2", "summary": "Reserved", "startDate": "2024-09-01T00:00:00Z", "endDate": "2024-09-04T00:00:00Z"}
	]
}`

const validFeed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nUID:b1\r\nDTSTART:20240820T150000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func strptr(s string) *string { return &s }

func newTestService(store PropertyStore, gen ai.Generator, workers int) *Service {
	return NewService(store, ical.NewFetcher(), ai.NewExtractor(gen), nil, workers)
}

func TestSyncAllFleetScenario(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFeed))
	}))
	defer feedServer.Close()

	notFoundServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer notFoundServer.Close()

	store := newMemoryStore()
	store.add(models.Property{ID: "prop-a", Name: "Apartment A"})
	store.add(models.Property{ID: "prop-b", Name: "House B", ICalURL: strptr(notFoundServer.URL)})
	store.add(models.Property{ID: "prop-c", Name: "Condo C", ICalURL: strptr(feedServer.URL)})

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(store, gen, 1)

	result, err := service.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	if result.Summary.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", result.Summary.SuccessCount)
	}
	if result.Summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", result.Summary.ErrorCount)
	}
	if result.Summary.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", result.Summary.SkippedCount)
	}
	if result.Summary.TotalPropertiesQueried != 3 {
		t.Errorf("TotalPropertiesQueried = %d, want 3", result.Summary.TotalPropertiesQueried)
	}
	if len(result.Details) != 3 {
		t.Fatalf("got %d details, want 3", len(result.Details))
	}

	byID := make(map[string]models.PropertySyncOutcome)
	for _, d := range result.Details {
		byID[d.PropertyID] = d
	}
	if byID["prop-a"].Status != models.SyncStatusSkipped {
		t.Errorf("prop-a status = %q, want skipped", byID["prop-a"].Status)
	}
	if byID["prop-b"].Status != models.SyncStatusError {
		t.Errorf("prop-b status = %q, want error_processing", byID["prop-b"].Status)
	}
	if byID["prop-c"].Status != models.SyncStatusSuccess {
		t.Errorf("prop-c status = %q, want success", byID["prop-c"].Status)
	}
	if byID["prop-c"].EventsFetched != 2 {
		t.Errorf("prop-c events = %d, want 2", byID["prop-c"].EventsFetched)
	}

	// Only C's feed reaches the model: A has no URL, B fails at fetch.
	if gen.callCount() != 1 {
		t.Errorf("model calls = %d, want 1", gen.callCount())
	}

	// B's failure is persisted: empty events, message, timestamp touched.
	b, _ := store.GetByID(context.Background(), "prop-b")
	if b.LastSyncError == nil {
		t.Error("prop-b should have a persisted sync error")
	}
	if len(b.BookingEvents) != 0 {
		t.Errorf("prop-b events = %d, want 0", len(b.BookingEvents))
	}
	if b.LastSyncAt == nil {
		t.Error("prop-b sync timestamp should be touched on failure")
	}

	// C's events replace the prior set.
	c, _ := store.GetByID(context.Background(), "prop-c")
	if len(c.BookingEvents) != 2 {
		t.Errorf("prop-c persisted events = %d, want 2", len(c.BookingEvents))
	}
	if c.LastSyncError != nil {
		t.Errorf("prop-c sync error = %q, want nil", *c.LastSyncError)
	}
}

func TestSyncAllIdempotent(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFeed))
	}))
	defer feedServer.Close()

	store := newMemoryStore()
	store.add(models.Property{ID: "prop-1", Name: "Cabin", ICalURL: strptr(feedServer.URL)})

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(store, gen, 1)

	first, err := service.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("first SyncAll failed: %v", err)
	}
	second, err := service.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("second SyncAll failed: %v", err)
	}

	if first.Summary != second.Summary {
		t.Errorf("summaries differ: %+v vs %+v", first.Summary, second.Summary)
	}
	if first.Details[0].Status != second.Details[0].Status {
		t.Errorf("statuses differ: %q vs %q", first.Details[0].Status, second.Details[0].Status)
	}

	p, _ := store.GetByID(context.Background(), "prop-1")
	if len(p.BookingEvents) != 2 {
		t.Errorf("persisted events = %d, want 2", len(p.BookingEvents))
	}
	if p.BookingEvents[0].StartDate != "2024-08-20T15:00:00Z" {
		t.Errorf("startDate = %q, want unchanged", p.BookingEvents[0].StartDate)
	}
}

func TestSyncPropertyInvalidFeedContentSkipsModel(t *testing.T) {
	htmlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>login required</body></html>"))
	}))
	defer htmlServer.Close()

	store := newMemoryStore()
	store.add(models.Property{ID: "prop-1", Name: "Loft", ICalURL: strptr(htmlServer.URL)})

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(store, gen, 1)

	p, _ := store.GetByID(context.Background(), "prop-1")
	outcome := service.SyncProperty(context.Background(), *p)

	if outcome.Status != models.SyncStatusInvalidFeed {
		t.Errorf("status = %q, want error_invalid_feed_content", outcome.Status)
	}
	if gen.callCount() != 0 {
		t.Errorf("model calls = %d, want 0 (gate fires before the model)", gen.callCount())
	}
}

func TestSyncPropertyBenignEmpty(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"))
	}))
	defer feedServer.Close()

	store := newMemoryStore()
	store.add(models.Property{ID: "prop-1", Name: "Villa", ICalURL: strptr(feedServer.URL)})

	gen := &countingGenerator{response: `{"events": [], "error": "No VEVENT components with DTSTART found"}`}
	service := newTestService(store, gen, 1)

	p, _ := store.GetByID(context.Background(), "prop-1")
	outcome := service.SyncProperty(context.Background(), *p)

	if outcome.Status != models.SyncStatusSuccess {
		t.Errorf("status = %q, want success for a benign empty calendar", outcome.Status)
	}
	if outcome.Message != "" {
		t.Errorf("message = %q, want the benign error cleared", outcome.Message)
	}

	persisted, _ := store.GetByID(context.Background(), "prop-1")
	if persisted.LastSyncError != nil {
		t.Errorf("persisted error = %q, want nil", *persisted.LastSyncError)
	}
}

func TestSyncPropertyAdvisoryKeepsEvents(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFeed))
	}))
	defer feedServer.Close()

	store := newMemoryStore()
	store.add(models.Property{ID: "prop-1", Name: "Chalet", ICalURL: strptr(feedServer.URL)})

	gen := &countingGenerator{response: `{
		"events": [{"uid": "b1", "summary": "Reserved", "startDate": "2024-08-20T00:00:00Z", "endDate": "2024-08-21T00:00:00Z"}],
		"error": "one VEVENT without DTSTART was dropped"
	}`}
	service := newTestService(store, gen, 1)

	p, _ := store.GetByID(context.Background(), "prop-1")
	outcome := service.SyncProperty(context.Background(), *p)

	if outcome.Status != models.SyncStatusSuccessAIIssue {
		t.Errorf("status = %q, want success_with_ai_issues", outcome.Status)
	}
	if outcome.EventsFetched != 1 {
		t.Errorf("events = %d, want 1", outcome.EventsFetched)
	}

	persisted, _ := store.GetByID(context.Background(), "prop-1")
	if len(persisted.BookingEvents) != 1 {
		t.Errorf("persisted events = %d, want 1 (advisory does not drop events)", len(persisted.BookingEvents))
	}
}

func TestSyncAllBoundedWorkers(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFeed))
	}))
	defer feedServer.Close()

	store := newMemoryStore()
	for i := 0; i < 8; i++ {
		store.add(models.Property{
			ID:      fmt.Sprintf("prop-%d", i),
			Name:    fmt.Sprintf("Property %d", i),
			ICalURL: strptr(feedServer.URL),
		})
	}

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(store, gen, 3)

	result, err := service.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if result.Summary.SuccessCount != 8 {
		t.Errorf("SuccessCount = %d, want 8", result.Summary.SuccessCount)
	}

	// Details keep input-list order regardless of worker interleaving.
	for i, d := range result.Details {
		want := fmt.Sprintf("prop-%d", i)
		if d.PropertyID != want {
			t.Errorf("details[%d] = %q, want %q", i, d.PropertyID, want)
		}
	}
}

func TestSyncAllListFailure(t *testing.T) {
	store := newMemoryStore()
	store.listErr = fmt.Errorf("database is locked")

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(store, gen, 1)

	if _, err := service.SyncAll(context.Background()); err == nil {
		t.Fatal("expected an error when properties cannot be listed")
	}
}

func TestSyncAllWithoutExtractor(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, ical.NewFetcher(), nil, nil, 1)

	if _, err := service.SyncAll(context.Background()); err == nil {
		t.Fatal("expected an error when the model client is unconfigured")
	}
}

func TestParseFeedThreeWay(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFeed))
	}))
	defer feedServer.Close()

	tests := []struct {
		name        string
		response    string
		wantSuccess bool
		wantEvents  int
		wantError   string
	}{
		{"events found", twoEventResponse, true, 2, ""},
		{"benign empty", `{"events": [], "error": "no events found"}`, true, 0, ""},
		{"hard error", `{"events": [], "error": "Malformed VCALENDAR structure"}`, false, 0, "Malformed VCALENDAR structure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &countingGenerator{response: tt.response}
			service := newTestService(newMemoryStore(), gen, 1)

			result := service.ParseFeed(context.Background(), feedServer.URL)
			if result.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", result.Success, tt.wantSuccess)
			}
			if len(result.Events) != tt.wantEvents {
				t.Errorf("events = %d, want %d", len(result.Events), tt.wantEvents)
			}
			if result.Error != tt.wantError {
				t.Errorf("error = %q, want %q", result.Error, tt.wantError)
			}
		})
	}
}

func TestParseFeedStrictGate(t *testing.T) {
	// Lenient would accept the token mid-body; the single-feed action is
	// strict and must reject it before any model call.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<preamble>\nBEGIN:VCALENDAR\nEND:VCALENDAR"))
	}))
	defer server.Close()

	gen := &countingGenerator{response: twoEventResponse}
	service := newTestService(newMemoryStore(), gen, 1)

	result := service.ParseFeed(context.Background(), server.URL)
	if result.Success {
		t.Error("expected failure for a body not starting with BEGIN:VCALENDAR")
	}
	if gen.callCount() != 0 {
		t.Errorf("model calls = %d, want 0", gen.callCount())
	}
}

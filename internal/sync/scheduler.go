package sync

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers periodic fleet syncs. The HTTP endpoint remains the
// primary trigger; the scheduler just stands in for an external cron caller.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	entry   cron.EntryID
	// Wall-clock budget for one fleet run, matching the HTTP trigger's
	// generous deadline.
	runBudget time.Duration
}

// NewScheduler creates a fleet sync scheduler.
func NewScheduler(service *Service, runBudget time.Duration) *Scheduler {
	if runBudget <= 0 {
		runBudget = 540 * time.Second
	}
	return &Scheduler{
		cron:      cron.New(),
		service:   service,
		runBudget: runBudget,
	}
}

// Start begins periodic fleet syncs at the given interval in minutes.
func (s *Scheduler) Start(intervalMin int) error {
	if intervalMin <= 0 {
		intervalMin = 60
	}

	spec := "@every " + (time.Duration(intervalMin) * time.Minute).String()
	entry, err := s.cron.AddFunc(spec, s.runFleetSync)
	if err != nil {
		return err
	}
	s.entry = entry

	s.cron.Start()
	log.Printf("Fleet sync scheduler started (every %d minutes)", intervalMin)
	return nil
}

// Reschedule changes the sync interval.
func (s *Scheduler) Reschedule(intervalMin int) error {
	s.cron.Remove(s.entry)
	if intervalMin <= 0 {
		intervalMin = 60
	}

	spec := "@every " + (time.Duration(intervalMin) * time.Minute).String()
	entry, err := s.cron.AddFunc(spec, s.runFleetSync)
	if err != nil {
		return err
	}
	s.entry = entry
	log.Printf("Fleet sync rescheduled (every %d minutes)", intervalMin)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running sync.
func (s *Scheduler) Stop() {
	log.Println("Stopping fleet sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Fleet sync scheduler stopped")
}

// NextRun returns the next scheduled fleet sync time, if any.
func (s *Scheduler) NextRun() *time.Time {
	entry := s.cron.Entry(s.entry)
	if entry.Next.IsZero() {
		return nil
	}
	return &entry.Next
}

// TriggerFleetSync runs a fleet sync in the background.
func (s *Scheduler) TriggerFleetSync() {
	go s.runFleetSync()
}

func (s *Scheduler) runFleetSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runBudget)
	defer cancel()

	if _, err := s.service.SyncAll(ctx); err != nil {
		log.Printf("Scheduled fleet sync failed: %v", err)
	}
}

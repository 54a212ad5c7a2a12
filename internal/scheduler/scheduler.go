package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

// Ingester is the part of fuel.Service the scheduler drives.
type Ingester interface {
	Ingest(ctx context.Context, cities []string) (fuel.IngestReport, error)
}

// Scheduler periodically ingests station prices for the configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingester  Ingester
	cities    []string
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run is cancelled after timeout.
func New(cities []string, interval, timeout time.Duration, ingester Ingester) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		ingester:  ingester,
		cities:    cities,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run starts immediately; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		log.Println("scheduler: running price ingestion job")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		report, err := s.ingester.Ingest(ctx, s.cities)
		if err != nil {
			log.Printf("scheduler: ingestion %s failed: %v", report.RunID, err)
			return
		}
		log.Printf("scheduler: completed ingestion %s in %s", report.RunID, time.Since(report.Started).Round(time.Second))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

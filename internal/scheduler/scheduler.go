package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const revalidationJobName = "revalidate-snapshots"

var ErrInvalidInterval = errors.New("revalidation interval must be positive")

// Revalidator refetches outdated post snapshots.
type Revalidator interface {
	RevalidateStale(ctx context.Context) (int, error)
}

// Scheduler wraps gocron scheduler for the periodic snapshot revalidation.
type Scheduler struct {
	scheduler gocron.Scheduler

	// Job context - cancelled when Stop() is called
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// ScheduleRevalidation runs r every interval. A run that is still going when
// the next one is due delays it instead of overlapping.
func (s *Scheduler) ScheduleRevalidation(interval time.Duration, r Revalidator) (string, error) {
	if interval <= 0 {
		return "", ErrInvalidInterval
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.revalidate, r),
		gocron.WithName(revalidationJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create revalidation job: %w", err)
	}

	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Info().Msg("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels a running revalidation and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	log.Info().Msg("Stopping scheduler")
	s.cancel()
	return s.scheduler.Shutdown()
}

// revalidate is called by gocron on every tick.
func (s *Scheduler) revalidate(r Revalidator) {
	start := time.Now()
	refreshed, err := r.RevalidateStale(s.ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Int("refreshed", refreshed).Msg("Snapshot revalidation failed")
		return
	}

	log.Debug().Int("refreshed", refreshed).Dur("duration", time.Since(start)).Msg("Revalidated stale snapshots")
}

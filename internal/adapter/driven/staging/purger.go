package staging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PurgeScheduler = (*Purger)(nil)

const minSweepInterval = time.Second

// Purger deletes staged files once they have been delivered, and sweeps the
// staging directory for files whose download never happened.
type Purger struct {
	store     *Store
	delay     time.Duration
	retention time.Duration
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewPurger creates a Purger. delay is the wait between delivery and removal;
// files older than retention are removed by the periodic sweep regardless.
func NewPurger(store *Store, delay, retention time.Duration, logger *slog.Logger) (*Purger, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create purge scheduler: %w", err)
	}

	return &Purger{
		store:     store,
		delay:     delay,
		retention: retention,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// Start registers the periodic sweep and starts the scheduler.
func (p *Purger) Start() error {
	interval := max(p.retention/2, minSweepInterval)

	_, err := p.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.Sweep),
		gocron.WithName("staging-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule staging sweep: %w", err)
	}

	p.scheduler.Start()
	p.logger.Info("staging purger started", "dir", p.store.Dir(), "delay", p.delay, "retention", p.retention)
	return nil
}

// SchedulePurge removes filename after the configured delay. Scheduling and
// removal failures are logged; the sweep catches anything left behind.
func (p *Purger) SchedulePurge(filename string) {
	start := gocron.OneTimeJobStartImmediately()
	if p.delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(p.delay))
	}

	_, err := p.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(p.purge, filename),
		gocron.WithName("purge:"+filename),
	)
	if err != nil {
		p.logger.Error("failed to schedule export purge", "file", filename, "error", err)
	}
}

func (p *Purger) purge(filename string) {
	if err := p.store.Remove(filename); err != nil {
		p.logger.Error("failed to purge export", "file", filename, "error", err)
		return
	}
	p.logger.Debug("purged export", "file", filename)
}

// Sweep removes staged files older than the retention window.
func (p *Purger) Sweep() {
	removed, err := p.store.RemoveOlderThan(p.retention)
	if err != nil {
		p.logger.Error("staging sweep incomplete", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		p.logger.Info("staging sweep removed expired exports", "removed", removed)
	}
}

// Shutdown stops the scheduler. Pending purges are dropped; the next sweep
// after restart removes their files.
func (p *Purger) Shutdown() error {
	if err := p.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown purge scheduler: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/robfig/cron/v3"
)

// accepts standard 5-field expressions and descriptors like "@every 10m"
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Janitor evicts idle sessions on a cron schedule.
type Janitor struct {
	store    *MemoryStore
	schedule cron.Schedule
	idle     time.Duration
	onSweep  func(evicted []string)
}

func NewJanitor(store *MemoryStore, schedule string, idle time.Duration) (*Janitor, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule: %w", err)
	}
	if idle <= 0 {
		return nil, fmt.Errorf("idle ttl must be positive, got %s", idle)
	}
	return &Janitor{store: store, schedule: sched, idle: idle}, nil
}

// OnSweep registers a callback invoked after each sweep with the evicted
// session ids.
func (j *Janitor) OnSweep(fn func(evicted []string)) {
	j.onSweep = fn
}

// Run sweeps on schedule until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	logger.Info("session janitor started", "idle", j.idle)

	for {
		next := j.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("session janitor stopping")
			return nil
		case <-timer.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	evicted := j.store.Sweep(j.idle)
	if len(evicted) > 0 {
		logger.Info("idle sessions evicted", "count", len(evicted), "remaining", j.store.Len())
	}
	if j.onSweep != nil {
		j.onSweep(evicted)
	}
}

// Package schedule runs a job once a day at a fixed local wall-clock time,
// only when the network is reachable.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is the scheduled work. force is true only for RunNow.
type Job func(ctx context.Context, force bool) error

// Probe reports whether the network precondition holds.
type Probe func(ctx context.Context) bool

// Config holds the daily slot and the offline retry cadence.
type Config struct {
	Hour          int
	Minute        int
	RetryInterval time.Duration // how often to re-probe while offline
}

// DefaultConfig returns a 09:00 slot with 15 minute offline retries.
func DefaultConfig() Config {
	return Config{Hour: 9, Minute: 0, RetryInterval: 15 * time.Minute}
}

// Daily fires a Job once per day.
type Daily struct {
	job   Job
	probe Probe
	cfg   Config
	log   logrus.FieldLogger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewDaily returns a stopped scheduler. A nil probe always passes.
func NewDaily(job Job, probe Probe, cfg Config, log logrus.FieldLogger) *Daily {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 15 * time.Minute
	}
	if probe == nil {
		probe = func(context.Context) bool { return true }
	}
	return &Daily{
		job:    job,
		probe:  probe,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		after:  time.After,
		stopCh: make(chan struct{}),
	}
}

// NextRun returns the first hour:minute local time strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Start begins the scheduler loop. Starting a running scheduler is a no-op.
func (d *Daily) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx, stopCh)

	d.log.WithField("next_run", NextRun(d.now(), d.cfg.Hour, d.cfg.Minute).Format(time.RFC3339)).Info("daily scheduler started")
	return nil
}

// Stop halts the loop and waits for an in-flight job to return.
func (d *Daily) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("daily scheduler stopped")
}

// RunNow runs the job once with force set, skipping the connectivity check.
func (d *Daily) RunNow(ctx context.Context) error {
	return d.job(ctx, true)
}

func (d *Daily) run(ctx context.Context, stopCh <-chan struct{}) {
	defer d.wg.Done()

	for {
		slot := NextRun(d.now(), d.cfg.Hour, d.cfg.Minute)
		if !d.sleep(ctx, stopCh, slot.Sub(d.now())) {
			return
		}
		if !d.attempt(ctx, stopCh, slot) {
			return
		}
	}
}

// attempt runs the job for slot once the probe passes, re-probing every
// RetryInterval until the next day's slot. It returns false when stopped.
func (d *Daily) attempt(ctx context.Context, stopCh <-chan struct{}, slot time.Time) bool {
	deadline := NextRun(slot, d.cfg.Hour, d.cfg.Minute)
	for {
		if d.probe(ctx) {
			if err := d.job(ctx, false); err != nil {
				d.log.WithError(err).Warn("scheduled job failed")
			}
			return true
		}
		if !d.now().Add(d.cfg.RetryInterval).Before(deadline) {
			d.log.Warn("network unavailable, giving up until the next slot")
			return true
		}
		d.log.WithField("retry_in", d.cfg.RetryInterval.String()).Info("network unavailable, will retry")
		if !d.sleep(ctx, stopCh, d.cfg.RetryInterval) {
			return false
		}
	}
}

func (d *Daily) sleep(ctx context.Context, stopCh <-chan struct{}, dur time.Duration) bool {
	if dur < 0 {
		dur = 0
	}
	select {
	case <-d.after(dur):
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"job-service/internal/infrastructure/events"
	"job-service/internal/repository"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultExpirySchedule = "@every 1m"
	sweepTimeout          = 30 * time.Second
)

type ExpiryOptions struct {
	Schedule string
	LockTTL  time.Duration
}

// ExpiryReaper moves ACTIVE jobs past their expiry to EXPIRED. Sweeps are
// idempotent; the optional lock only saves redundant work when several
// instances share a schedule.
type ExpiryReaper struct {
	jobs      repository.JobRepository
	cache     SearchCache
	locker    Locker
	publisher events.Publisher
	clock     Clock
	logger    *zap.Logger
	opts      ExpiryOptions

	mu   sync.Mutex
	cron *cron.Cron
}

func NewExpiryReaper(jobs repository.JobRepository, cache SearchCache, locker Locker, publisher events.Publisher, clock Clock, logger *zap.Logger, opts ExpiryOptions) *ExpiryReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultExpirySchedule
	}
	return &ExpiryReaper{
		jobs:      jobs,
		cache:     cache,
		locker:    locker,
		publisher: publisher,
		clock:     clock,
		logger:    logger.Named("expiry"),
		opts:      opts,
	}
}

// Sweep expires every ACTIVE job whose expires_at is before now and returns
// how many changed.
func (r *ExpiryReaper) Sweep(ctx context.Context) (int64, error) {
	now := r.clock.now()
	n, err := r.jobs.ExpireAll(ctx, now)
	if err != nil {
		r.logger.Error("expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if n == 0 {
		r.logger.Debug("expiry sweep found nothing to expire")
		return 0, nil
	}

	r.logger.Info("expired jobs", zap.Int64("count", n), zap.Time("as_of", now))
	if r.cache != nil {
		if err := r.cache.InvalidateJobs(ctx); err != nil {
			r.logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	if err := r.publisher.Publish(ctx, events.Event{Type: events.JobsExpired, Count: n, OccurredAt: now}); err != nil {
		r.logger.Warn("publish expiry event failed", zap.Error(err))
	}
	return n, nil
}

// SweepLocked runs Sweep unless another instance holds the sweep lock.
// ran is false when the sweep was skipped.
func (r *ExpiryReaper) SweepLocked(ctx context.Context) (n int64, ran bool, err error) {
	if r.locker == nil {
		n, err = r.Sweep(ctx)
		return n, true, err
	}

	key := ExpiryLockKey()
	ok, err := r.locker.SetIfNotExists(ctx, key, lockOwner(), r.opts.LockTTL)
	if err != nil {
		// cache trouble should not stop expiry
		r.logger.Warn("expiry lock unavailable, sweeping unguarded", zap.Error(err))
		n, err = r.Sweep(ctx)
		return n, true, err
	}
	if !ok {
		r.logger.Debug("expiry sweep held by another instance")
		return 0, false, nil
	}
	defer func() {
		if err := r.locker.Delete(context.Background(), key); err != nil {
			r.logger.Debug("release expiry lock failed", zap.Error(err))
		}
	}()

	n, err = r.Sweep(ctx)
	return n, true, err
}

// Start schedules SweepLocked on the configured cron spec.
func (r *ExpiryReaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(r.opts.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		_, _, _ = r.SweepLocked(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", r.opts.Schedule, err)
	}

	c.Start()
	r.cron = c
	r.logger.Info("expiry reaper started", zap.String("schedule", r.opts.Schedule))
	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (r *ExpiryReaper) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	r.logger.Info("expiry reaper stopped")
}

func lockOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

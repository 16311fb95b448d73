// Package reminder runs the scheduled Telegram notifications: the periodic
// "time to retake the test" reminder and the rotating wellness tips. A pool
// of workers drains an in-process queue that a poller fills from the users
// whose next_test_date or next_tip_date has passed.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields fall back
// to DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent delivery goroutines. Default: 3.
	Workers int

	// PollInterval is how often due users are loaded. Default: 1m.
	PollInterval time.Duration

	// JobTimeout is the per-attempt context deadline. Default: 30s.
	JobTimeout time.Duration

	// MaxRetries is the number of delivery attempts per job. Default: 3.
	MaxRetries int

	// BatchSize caps how many due users one poll loads per kind. Default: 100.
	BatchSize int

	// RetestInterval and TipInterval advance the schedule after a job.
	// Defaults: 30 days and 3 days.
	RetestInterval time.Duration
	TipInterval    time.Duration
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:        3,
		PollInterval:   time.Minute,
		JobTimeout:     30 * time.Second,
		MaxRetries:     3,
		BatchSize:      100,
		RetestInterval: 30 * 24 * time.Hour,
		TipInterval:    3 * 24 * time.Hour,
	}
}

// Runner manages the worker pool and the poller.
type Runner struct {
	q        Querier
	notifier Notifier
	cfg      RunnerConfig
	logger   *slog.Logger

	queue chan Job
	wg    sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}

	now     func() time.Time
	backoff func(attempt int) time.Duration
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(q Querier, n Notifier, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.RetestInterval <= 0 {
		cfg.RetestInterval = def.RetestInterval
	}
	if cfg.TipInterval <= 0 {
		cfg.TipInterval = def.TipInterval
	}

	return &Runner{
		q:        q,
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		// Buffer = Workers*2; overflow waits for the next poll.
		queue:    make(chan Job, cfg.Workers*2),
		inFlight: make(map[string]struct{}),
		now:      time.Now,
		backoff:  exponentialBackoff,
	}
}

// Start launches the worker pool and the poller. It blocks until ctx is
// cancelled:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("reminder: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("reminder: stopped")
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-r.queue:
			r.runWithRetry(ctx, j, log)
			r.release(j)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

// pollOnce loads due users of both kinds and enqueues every job not already
// in flight.
func (r *Runner) pollOnce(ctx context.Context) {
	arg := dueParams(r.now(), r.cfg.BatchSize)

	tests, err := r.q.ListDueTestReminders(ctx, arg)
	if err != nil {
		r.logger.Error("reminder: list due test reminders failed", "error", err)
	}
	tips, err := r.q.ListDueTips(ctx, arg)
	if err != nil {
		r.logger.Error("reminder: list due tips failed", "error", err)
	}

	for _, j := range append(jobsFromUsers(KindTestReminder, tests), jobsFromUsers(KindTip, tips)...) {
		if !r.claim(j) {
			continue
		}
		select {
		case r.queue <- j:
			r.logger.Debug("reminder: enqueued", "kind", j.Kind, "employee_id", j.EmployeeID)
		default:
			// Queue full; the next poll picks it up again.
			r.release(j)
		}
	}
}

func (r *Runner) claim(j Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[j.key()]; busy {
		return false
	}
	r.inFlight[j.key()] = struct{}{}
	return true
}

func (r *Runner) release(j Job) {
	r.mu.Lock()
	delete(r.inFlight, j.key())
	r.mu.Unlock()
}

// runWithRetry delivers the job up to MaxRetries times, then advances the
// schedule whether or not delivery succeeded so a dead chat is not retried on
// every poll.
func (r *Runner) runWithRetry(ctx context.Context, j Job, log *slog.Logger) {
	log = log.With("kind", j.Kind, "employee_id", j.EmployeeID)
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.run(jobCtx, j)
		cancel()

		if lastErr == nil {
			log.Info("reminder: delivered", "attempt", attempt)
			break
		}

		log.Warn("reminder: attempt failed", "attempt", attempt, "max", r.cfg.MaxRetries, "error", lastErr)

		if attempt < r.cfg.MaxRetries {
			// Exponential back-off: 2s, 4s, 8s …
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	if lastErr != nil {
		log.Error("reminder: giving up until next interval", "error", lastErr)
	}

	advCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r.advance(advCtx, j); err != nil {
		log.Error("reminder: failed to advance schedule", "error", err)
	}
}

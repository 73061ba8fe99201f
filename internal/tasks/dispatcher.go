package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/email"
)

// DispatcherConfig controls polling and retry behaviour.
type DispatcherConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	RetryBase    time.Duration
	BatchSize    int
}

// NotificationDispatcher delivers queued emails in the background. A failed
// delivery is re-enqueued with exponential backoff until MaxAttempts is
// reached, then dropped and logged. Failures never reach the request that
// triggered the email.
type NotificationDispatcher struct {
	queue  Queue
	mailer email.Mailer
	cfg    DispatcherConfig
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewNotificationDispatcher creates a dispatcher; zero config values get defaults.
func NewNotificationDispatcher(queue Queue, mailer email.Mailer, cfg DispatcherConfig, logger *zap.Logger) *NotificationDispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &NotificationDispatcher{
		queue:  queue,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (d *NotificationDispatcher) Name() string { return "notification-dispatcher" }

// Notify enqueues msg for delivery after delay. Enqueue errors are logged.
func (d *NotificationDispatcher) Notify(kind string, msg email.Message, delay time.Duration) {
	job := NewJob(kind, msg, d.now().Add(delay))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.logger.Error("enqueue notification failed",
			zap.String("kind", kind),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("notification enqueued",
		zap.String("job_id", job.ID),
		zap.String("kind", kind),
		zap.Time("not_before", job.NotBefore),
	)
}

// Start begins polling in a goroutine
func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.RunOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates polling and waits for the in-flight batch
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.cancel()
	<-d.done
	d.running = false
}

// RunOnce delivers every job that is due now and returns how many were sent.
func (d *NotificationDispatcher) RunOnce(ctx context.Context) int {
	jobs, err := d.queue.Due(ctx, d.now(), d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("read notification queue failed", zap.Error(err))
	}

	sent := 0
	for _, job := range jobs {
		if d.deliver(ctx, job) {
			sent++
		}
	}
	return sent
}

func (d *NotificationDispatcher) deliver(ctx context.Context, job Job) bool {
	job.Attempt++
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := d.mailer.Send(sendCtx, job.Message)
	cancel()
	if err == nil {
		d.logger.Info("notification sent",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Int("attempt", job.Attempt),
		)
		return true
	}

	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("kind", job.Kind),
		zap.String("to", job.Message.To),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	}
	if job.Attempt >= d.cfg.MaxAttempts {
		d.logger.Error("notification dropped after max attempts", fields...)
		return false
	}

	job.NotBefore = d.now().Add(d.backoff(job.Attempt))
	d.logger.Warn("notification failed, retrying", append(fields, zap.Time("retry_at", job.NotBefore))...)
	// ctx is cancelled on shutdown; the retry must still be persisted.
	requeueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Enqueue(requeueCtx, job); err != nil {
		d.logger.Error("requeue notification failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	return false
}

// backoff is RetryBase * 2^(attempt-1).
func (d *NotificationDispatcher) backoff(attempt int) time.Duration {
	return d.cfg.RetryBase << (attempt - 1)
}

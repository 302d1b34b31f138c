// Package worker drains the event outbox and hands each job to a deliverer.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

// MaxAttempts is the number of deliveries tried before a job is marked FAILED.
const MaxAttempts = 5

type Deliverer interface {
	Send(ctx context.Context, url, eventType string, payload []byte) error
}

type Processor struct {
	queue    domain.EventQueue
	sender   Deliverer
	interval time.Duration
	now      func() time.Time
}

func NewProcessor(queue domain.EventQueue, sender Deliverer, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Processor{
		queue:    queue,
		sender:   sender,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Backoff is the delay before the next delivery after attempts failed ones.
func Backoff(attempts int) time.Duration {
	return time.Duration(attempts*10+10) * time.Second
}

// Run polls the queue until ctx is canceled.
func (p *Processor) Run(ctx context.Context) {
	slog.Info("Webhook worker started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.drain(ctx)

		select {
		case <-ctx.Done():
			slog.Info("Webhook worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Processor) drain(ctx context.Context) {
	for ctx.Err() == nil {
		processed, err := p.ProcessNext(ctx)
		if err != nil {
			slog.Error("Worker: failed to process job", "error", err)
			return
		}
		if !processed {
			return
		}
	}
}

// ProcessNext claims one due job and delivers it. It reports false when
// nothing was due.
func (p *Processor) ProcessNext(ctx context.Context) (bool, error) {
	job, err := p.queue.ClaimDueEvent(ctx, p.now())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !json.Valid(job.Payload) {
		slog.Error("Worker: invalid payload", "job_id", job.ID)
		return true, p.queue.FailEvent(ctx, job.ID)
	}

	slog.Info("Worker: processing job", "url", job.URL, "job_id", job.ID, "event", job.Type)

	if sendErr := p.sender.Send(ctx, job.URL, job.Type, job.Payload); sendErr != nil {
		slog.Error("Worker: webhook failed", "error", sendErr, "job_id", job.ID, "attempts", job.Attempts+1)

		if job.Attempts+1 >= MaxAttempts {
			slog.Error("Worker: job marked as FAILED, max attempts reached", "job_id", job.ID)
			return true, p.queue.FailEvent(ctx, job.ID)
		}

		nextRun := p.now().Add(Backoff(job.Attempts))
		slog.Info("Worker: scheduled retry", "job_id", job.ID, "next_run", nextRun)
		return true, p.queue.RetryEvent(ctx, job.ID, nextRun)
	}

	slog.Info("Worker: webhook sent", "job_id", job.ID)
	return true, p.queue.CompleteEvent(ctx, job.ID)
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

func (s *Store) ClaimDueEvent(ctx context.Context, now time.Time) (*domain.EventJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.EventJob
	for _, job := range s.jobs {
		if job.Status == domain.EventPending && !job.NextRunAt.After(now) {
			due = append(due, job)
		}
	}
	if len(due) == 0 {
		return nil, domain.ErrNotFound
	}

	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })

	job := due[0]
	job.Status = domain.EventProcessing
	s.jobs[job.ID] = job
	return &job, nil
}

func (s *Store) CompleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.updateJob(ctx, id, func(job *domain.EventJob) {
		job.Status = domain.EventCompleted
	})
}

func (s *Store) RetryEvent(ctx context.Context, id uuid.UUID, nextRun time.Time) error {
	return s.updateJob(ctx, id, func(job *domain.EventJob) {
		job.Status = domain.EventPending
		job.Attempts++
		job.NextRunAt = nextRun
	})
}

func (s *Store) FailEvent(ctx context.Context, id uuid.UUID) error {
	return s.updateJob(ctx, id, func(job *domain.EventJob) {
		job.Status = domain.EventFailed
		job.Attempts++
	})
}

// Events returns a copy of every queued job, oldest first.
func (s *Store) Events() []domain.EventJob {
	s.mu.RLock()
	jobs := make([]domain.EventJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs
}

func (s *Store) updateJob(ctx context.Context, id uuid.UUID, apply func(*domain.EventJob)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	apply(&job)
	s.jobs[id] = job
	return nil
}

func (s *Store) LookupResponse(ctx context.Context, key string) (*domain.StoredResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, ok := s.responses[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	resp.Body = append([]byte(nil), resp.Body...)
	return &resp, nil
}

func (s *Store) SaveResponse(ctx context.Context, key string, resp domain.StoredResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.responses[key]; ok {
		return nil
	}
	resp.Body = append([]byte(nil), resp.Body...)
	s.responses[key] = resp
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

// ClaimDueEvent picks the oldest due job with SKIP LOCKED so several workers
// can poll the same table without handing out a job twice.
func (s *PostgresStore) ClaimDueEvent(ctx context.Context, now time.Time) (*domain.EventJob, error) {
	query := `
		UPDATE event_jobs SET status = 'PROCESSING', updated_at = NOW()
		WHERE id = (
			SELECT id FROM event_jobs
			WHERE status = 'PENDING' AND next_run_at <= $1
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_type, url, payload, status, attempts, next_run_at, created_at
	`

	var job domain.EventJob
	err := s.db.QueryRow(ctx, query, now).Scan(
		&job.ID, &job.Type, &job.URL, &job.Payload, &job.Status, &job.Attempts, &job.NextRunAt, &job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim event: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) CompleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.execJob(ctx, `UPDATE event_jobs SET status = 'COMPLETED', updated_at = NOW() WHERE id = $1`, id)
}

func (s *PostgresStore) RetryEvent(ctx context.Context, id uuid.UUID, nextRun time.Time) error {
	return s.execJob(ctx,
		`UPDATE event_jobs SET status = 'PENDING', attempts = attempts + 1, next_run_at = $2, updated_at = NOW() WHERE id = $1`,
		id, nextRun,
	)
}

func (s *PostgresStore) FailEvent(ctx context.Context, id uuid.UUID) error {
	return s.execJob(ctx, `UPDATE event_jobs SET status = 'FAILED', attempts = attempts + 1, updated_at = NOW() WHERE id = $1`, id)
}

func (s *PostgresStore) execJob(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

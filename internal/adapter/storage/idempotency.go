package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

func (s *PostgresStore) LookupResponse(ctx context.Context, key string) (*domain.StoredResponse, error) {
	var resp domain.StoredResponse
	err := s.db.QueryRow(ctx,
		"SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1",
		key).Scan(&resp.Status, &resp.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return &resp, nil
}

func (s *PostgresStore) SaveResponse(ctx context.Context, key string, resp domain.StoredResponse) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO idempotency_keys (key_id, response_status, response_body) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		key, resp.Status, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

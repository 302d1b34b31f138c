package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

const transactionColumns = `id, origin_id, destination_id, amount, status, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var status string
	if err := row.Scan(&t.ID, &t.OriginID, &t.DestinationID, &t.Amount, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TransactionStatus(status)
	return &t, nil
}

// Atomic runs fn inside a database transaction. It commits when fn returns nil
// and rolls back on any error.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE origin_id = $1 OR destination_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// pgTx is the write handle handed to an atomic scope.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	return lockAccounts(ctx, t.tx, ids)
}

func (t *pgTx) LockTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	tr, err := scanTransaction(t.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return tr, nil
}

func (t *pgTx) SaveAccounts(ctx context.Context, accounts ...*domain.Account) error {
	for _, a := range accounts {
		if err := saveBalance(ctx, t.tx, a); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, origin_id, destination_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.tx.Exec(ctx, query,
		tr.ID, tr.OriginID, tr.DestinationID, tr.Amount, string(tr.Status), tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateTransactionStatus(ctx context.Context, tr *domain.Transaction) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1`,
		tr.ID, string(tr.Status), tr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *pgTx) EnqueueEvent(ctx context.Context, e domain.Event) error {
	query := `
		INSERT INTO event_jobs (id, event_type, url, payload, status, next_run_at)
		VALUES ($1, $2, $3, $4, 'PENDING', NOW())
	`
	if _, err := t.tx.Exec(ctx, query, e.ID, e.Type, e.URL, e.Payload); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	return nil
}

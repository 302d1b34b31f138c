package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

// memTx stages the writes of one atomic scope.
type memTx struct {
	store        *Store
	accounts     map[uuid.UUID]domain.Account
	transactions map[uuid.UUID]domain.Transaction
	order        []uuid.UUID
	jobs         []domain.EventJob
}

func newTx(s *Store) *memTx {
	return &memTx{
		store:        s,
		accounts:     make(map[uuid.UUID]domain.Account),
		transactions: make(map[uuid.UUID]domain.Transaction),
	}
}

func (tx *memTx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	out := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range ids {
		if a, ok := tx.accounts[id]; ok {
			out[id] = &a
			continue
		}
		if rec, ok := tx.store.accounts[id]; ok {
			a := rec.account
			out[id] = &a
		}
	}
	return out, nil
}

func (tx *memTx) LockTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t, ok := tx.transactions[id]; ok {
		return &t, nil
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	rec, ok := tx.store.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := rec.transaction
	return &t, nil
}

func (tx *memTx) SaveAccounts(ctx context.Context, accounts ...*domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	for _, a := range accounts {
		if _, ok := tx.store.accounts[a.ID]; !ok {
			return fmt.Errorf("save account %s: %w", a.ID, domain.ErrNotFound)
		}
		tx.accounts[a.ID] = *a
	}
	return nil
}

func (tx *memTx) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.store.mu.RLock()
	_, exists := tx.store.transactions[t.ID]
	tx.store.mu.RUnlock()

	if _, staged := tx.transactions[t.ID]; exists || staged {
		return fmt.Errorf("insert transaction %s: %w", t.ID, domain.ErrDuplicate)
	}

	tx.transactions[t.ID] = *t
	tx.order = append(tx.order, t.ID)
	return nil
}

func (tx *memTx) UpdateTransactionStatus(ctx context.Context, t *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := tx.LockTransaction(ctx, t.ID)
	if err != nil {
		return err
	}

	current.Status = t.Status
	current.UpdatedAt = t.UpdatedAt
	if _, staged := tx.transactions[t.ID]; !staged {
		tx.order = append(tx.order, t.ID)
	}
	tx.transactions[t.ID] = *current
	return nil
}

func (tx *memTx) EnqueueEvent(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := tx.store.clock()
	tx.jobs = append(tx.jobs, domain.EventJob{
		ID:        event.ID,
		Type:      event.Type,
		URL:       event.URL,
		Payload:   append([]byte(nil), event.Payload...),
		Status:    domain.EventPending,
		NextRunAt: now,
		CreatedAt: now,
	})
	return nil
}

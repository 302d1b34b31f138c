// Package memory is an in-process implementation of the ledger store, used for
// local runs and tests. Atomic scopes are serialized and stage their writes in
// an overlay that is applied only when the scope succeeds.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

type accountRecord struct {
	seq     uint64
	account domain.Account
}

type transactionRecord struct {
	seq         uint64
	transaction domain.Transaction
}

type Store struct {
	now func() time.Time

	// writeMu serializes atomic scopes and other writers.
	writeMu sync.Mutex

	mu           sync.RWMutex
	seq          uint64
	accounts     map[uuid.UUID]accountRecord
	transactions map[uuid.UUID]transactionRecord
	jobs         map[uuid.UUID]domain.EventJob
	responses    map[string]domain.StoredResponse
}

var (
	_ domain.Store            = (*Store)(nil)
	_ domain.EventQueue       = (*Store)(nil)
	_ domain.IdempotencyStore = (*Store)(nil)
)

type Option func(*Store)

// WithClock overrides the time source used for event scheduling.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:          func() time.Time { return time.Now().UTC() },
		accounts:     make(map[uuid.UUID]accountRecord),
		transactions: make(map[uuid.UUID]transactionRecord),
		jobs:         make(map[uuid.UUID]domain.EventJob),
		responses:    make(map[string]domain.StoredResponse),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clock() time.Time {
	return s.now()
}

func (s *Store) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a := rec.account
	return &a, nil
}

func (s *Store) FindAccounts(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	recs := make([]accountRecord, 0, len(s.accounts))
	for _, rec := range s.accounts {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	accounts := make([]domain.Account, len(recs))
	for i, rec := range recs {
		accounts[i] = rec.account
	}
	return accounts, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := rec.transaction
	return &t, nil
}

func (s *Store) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var recs []transactionRecord
	for _, rec := range s.transactions {
		if rec.transaction.Touches(accountID) {
			recs = append(recs, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.transaction.CreatedAt.Equal(b.transaction.CreatedAt) {
			return a.transaction.CreatedAt.After(b.transaction.CreatedAt)
		}
		return a.seq > b.seq
	})

	txs := make([]domain.Transaction, len(recs))
	for i, rec := range recs {
		txs[i] = rec.transaction
	}
	return txs, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.accounts {
		if rec.account.ID == account.ID || strings.EqualFold(rec.account.Email, account.Email) {
			return domain.ErrDuplicate
		}
	}

	s.seq++
	s.accounts[account.ID] = accountRecord{seq: s.seq, account: *account}
	return nil
}

// Atomic implements domain.Store.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx := newTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range tx.accounts {
		rec := s.accounts[id]
		rec.account = a
		s.accounts[id] = rec
	}

	for _, id := range tx.order {
		t := tx.transactions[id]
		rec, ok := s.transactions[id]
		if !ok {
			s.seq++
			rec.seq = s.seq
		}
		rec.transaction = t
		s.transactions[id] = rec
	}

	for _, job := range tx.jobs {
		s.jobs[job.ID] = job
	}
}

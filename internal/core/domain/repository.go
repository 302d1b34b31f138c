package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence interface consumed by the ledger core.
type Store interface {
	// FindAccountByID returns ErrNotFound when the account does not exist.
	FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)

	FindAccounts(ctx context.Context) ([]Account, error)

	// FindTransactionByID returns ErrNotFound when the transaction does not exist.
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindTransactionsByAccount returns transactions where the account is origin or destination, newest first.
	FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]Transaction, error)

	// CreateAccount returns ErrDuplicate when the email is taken.
	CreateAccount(ctx context.Context, account *Account) error

	// Atomic runs fn inside one unit of work. Writes made through tx commit when fn
	// returns nil and roll back otherwise. Resources are released on every path.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write handle of an atomic scope.
type Tx interface {
	// LockAccounts loads and locks the accounts for the rest of the scope.
	// Missing ids are absent from the result.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error)

	// LockTransaction loads and locks a transaction, ErrNotFound if absent.
	LockTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)

	SaveAccounts(ctx context.Context, accounts ...*Account) error
	InsertTransaction(ctx context.Context, t *Transaction) error
	UpdateTransactionStatus(ctx context.Context, t *Transaction) error
	EnqueueEvent(ctx context.Context, event Event) error
}

// EventQueue is the delivery side of the event outbox.
type EventQueue interface {
	// ClaimDueEvent marks the oldest due pending job as processing and returns it.
	// It returns ErrNotFound when nothing is due.
	ClaimDueEvent(ctx context.Context, now time.Time) (*EventJob, error)
	CompleteEvent(ctx context.Context, id uuid.UUID) error
	RetryEvent(ctx context.Context, id uuid.UUID, nextRun time.Time) error
	FailEvent(ctx context.Context, id uuid.UUID) error
}

// StoredResponse is a cached HTTP response for an idempotency key.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore keeps the first response seen for each idempotency key.
type IdempotencyStore interface {
	// LookupResponse returns ErrNotFound for unseen keys.
	LookupResponse(ctx context.Context, key string) (*StoredResponse, error)
	// SaveResponse keeps the first response stored for a key and ignores later ones.
	SaveResponse(ctx context.Context, key string, resp StoredResponse) error
}

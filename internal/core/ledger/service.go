// Package ledger implements the transaction lifecycle: classification of new
// transfers, the pending → confirmed/rejected state machine, and the atomic
// balance transfer applied on the immediate and confirmation paths.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
	"github.com/ferhaspert/belo-challenge/internal/core/gate"
)

const (
	errFieldsRequired     = "origin, destination and amount are required"
	errSameAccount        = "origin and destination must be different accounts"
	errAccountsNotFound   = "origin or destination not found"
	errInsufficientFunds  = "insufficient funds"
	errBusy               = "another transaction is being processed for these accounts, please try again later"
	errInvalidStatus      = `status must be either "confirmed" or "rejected"`
	errTransactionMissing = "transaction not found"
	errAccountIDRequired  = "accountId is required"
)

// Service is the entry point of the ledger core.
type Service struct {
	store    domain.Store
	gate     gate.Gate
	eventURL string
	now      func() time.Time
}

type Option func(*Service)

// WithEventURL enables transaction events; each one is queued for delivery to url.
func WithEventURL(url string) Option {
	return func(s *Service) { s.eventURL = url }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store domain.Store, g gate.Gate, opts ...Option) *Service {
	s := &Service{
		store: store,
		gate:  g,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTransactionInput is a transfer request. Amount is nil when absent.
type CreateTransactionInput struct {
	OriginID      string
	DestinationID string
	Amount        *decimal.Decimal
}

func (in CreateTransactionInput) validate() (origin, destination uuid.UUID, amount decimal.Decimal, err error) {
	if strings.TrimSpace(in.OriginID) == "" || strings.TrimSpace(in.DestinationID) == "" ||
		in.Amount == nil || !in.Amount.IsPositive() {
		return uuid.Nil, uuid.Nil, decimal.Zero, domain.NewError(domain.KindInvalidRequest, errFieldsRequired)
	}

	amount = domain.NormalizeAmount(*in.Amount)
	if !amount.IsPositive() {
		return uuid.Nil, uuid.Nil, decimal.Zero, domain.NewError(domain.KindInvalidRequest, "amount must be at least 0.01")
	}

	if origin, err = uuid.Parse(in.OriginID); err != nil {
		return uuid.Nil, uuid.Nil, decimal.Zero, domain.NewError(domain.KindInvalidRequest, "originId must be a valid UUID")
	}
	if destination, err = uuid.Parse(in.DestinationID); err != nil {
		return uuid.Nil, uuid.Nil, decimal.Zero, domain.NewError(domain.KindInvalidRequest, "destinationId must be a valid UUID")
	}
	if origin == destination {
		return uuid.Nil, uuid.Nil, decimal.Zero, domain.NewError(domain.KindInvalidRequest, errSameAccount)
	}

	return origin, destination, amount, nil
}

// CreateTransaction records a transfer. Amounts above the large transfer
// threshold are stored as pending without touching balances; the rest are
// confirmed and applied immediately.
func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	originID, destinationID, amount, err := in.validate()
	if err != nil {
		return nil, err
	}

	release, err := s.admit(ctx, originID, destinationID)
	if err != nil {
		return nil, err
	}
	defer release()

	origin, err := s.findAccount(ctx, originID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findAccount(ctx, destinationID); err != nil {
		return nil, err
	}

	if !origin.HasFunds(amount) {
		return nil, domain.NewError(domain.KindInsufficientFunds, errInsufficientFunds)
	}

	now := s.now()
	t := &domain.Transaction{
		ID:            uuid.New(),
		OriginID:      originID,
		DestinationID: destinationID,
		Amount:        amount,
		Status:        classify(amount),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx domain.Tx) error {
		if t.Status == domain.StatusPending {
			if err := tx.InsertTransaction(ctx, t); err != nil {
				return fmt.Errorf("insert pending transaction: %w", err)
			}
			return s.enqueue(ctx, tx, *t)
		}

		origin, destination, err := lockPair(ctx, tx, originID, destinationID)
		if err != nil {
			return err
		}
		if err := applyTransfer(ctx, tx, t, origin, destination, insertTransaction); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, *t)
	})
	if err != nil {
		slog.Error("Create transaction failed", "origin_id", originID, "destination_id", destinationID, "error", err)
		return nil, scopeError(err)
	}

	slog.Info("Transaction created", "transaction_id", t.ID, "status", t.Status, "amount", t.Amount.String())

	return t, nil
}

// UpdateStatus moves a pending transaction to confirmed or rejected.
// Confirmation applies the balance transfer; rejection only writes the status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Transaction, error) {
	target, ok := domain.ParseTargetStatus(status)
	if !ok {
		return nil, domain.NewError(domain.KindInvalidStatus, errInvalidStatus)
	}

	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NewError(domain.KindNotFound, errTransactionMissing)
	}

	current, err := s.store.FindTransactionByID(ctx, txID)
	if err != nil {
		return nil, notFoundOr(err, errTransactionMissing)
	}
	if current.Status.IsTerminal() {
		return nil, domain.AlreadyFinalized(current.Status)
	}

	release, err := s.admit(ctx, current.OriginID, current.DestinationID)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated domain.Transaction

	err = s.store.Atomic(ctx, func(ctx context.Context, tx domain.Tx) error {
		t, err := tx.LockTransaction(ctx, txID)
		if err != nil {
			return notFoundOr(err, errTransactionMissing)
		}
		if t.Status.IsTerminal() {
			return domain.AlreadyFinalized(t.Status)
		}

		var origin, destination *domain.Account
		if target == domain.StatusConfirmed {
			if origin, destination, err = lockPair(ctx, tx, t.OriginID, t.DestinationID); err != nil {
				return err
			}
			if !origin.HasFunds(t.Amount) {
				return domain.NewError(domain.KindInsufficientFunds, errInsufficientFunds)
			}
		}

		t.Status = target
		t.UpdatedAt = s.now()

		if target == domain.StatusConfirmed {
			err = applyTransfer(ctx, tx, t, origin, destination, writeStatus)
		} else {
			err = writeStatus(ctx, tx, t)
		}
		if err != nil {
			return err
		}

		updated = *t
		return s.enqueue(ctx, tx, *t)
	})
	if err != nil {
		slog.Error("Update transaction status failed", "transaction_id", txID, "status", target, "error", err)
		return nil, scopeError(err)
	}

	slog.Info("Transaction status updated", "transaction_id", txID, "status", updated.Status)

	return &updated, nil
}

// ListTransactions returns every transaction involving the account, newest first.
func (s *Service) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, errAccountIDRequired)
	}

	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "accountId must be a valid UUID")
	}

	txs, err := s.store.FindTransactionsByAccount(ctx, id)
	if err != nil {
		return nil, domain.PersistenceFailure(err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

func (s *Service) admit(ctx context.Context, origin, destination uuid.UUID) (gate.Release, error) {
	release, err := s.gate.TryAcquire(ctx, gate.AccountKey(origin), gate.AccountKey(destination))
	if errors.Is(err, gate.ErrBusy) {
		return nil, domain.NewError(domain.KindBusy, errBusy)
	}
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindBusy, Message: errBusy, Err: err}
	}
	return release, nil
}

func (s *Service) findAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errAccountsNotFound)
	}
	return a, nil
}

func (s *Service) enqueue(ctx context.Context, tx domain.Tx, t domain.Transaction) error {
	if s.eventURL == "" {
		return nil
	}

	event, err := domain.NewTransactionEvent(t, s.eventURL, s.now())
	if err != nil {
		return err
	}
	if err := tx.EnqueueEvent(ctx, event); err != nil {
		return fmt.Errorf("enqueue %s: %w", event.Type, err)
	}
	return nil
}

func classify(amount decimal.Decimal) domain.TransactionStatus {
	if domain.RequiresApproval(amount) {
		return domain.StatusPending
	}
	return domain.StatusConfirmed
}

func lockPair(ctx context.Context, tx domain.Tx, originID, destinationID uuid.UUID) (*domain.Account, *domain.Account, error) {
	accounts, err := tx.LockAccounts(ctx, originID, destinationID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock accounts: %w", err)
	}

	origin, destination := accounts[originID], accounts[destinationID]
	if origin == nil || destination == nil {
		return nil, nil, domain.NewError(domain.KindNotFound, errAccountsNotFound)
	}
	return origin, destination, nil
}

// notFoundOr maps a store ErrNotFound to a NotFound ledger error and anything
// else to a persistence failure.
func notFoundOr(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.KindNotFound, message)
	}
	var ledgerErr *domain.Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	return domain.PersistenceFailure(err)
}

// scopeError keeps business failures raised inside an atomic scope as they are
// and reports everything else as a persistence failure.
func scopeError(err error) error {
	var ledgerErr *domain.Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	return domain.PersistenceFailure(err)
}

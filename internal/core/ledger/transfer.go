package ledger

import (
	"context"
	"fmt"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

// persistFunc writes the transaction side of a transfer: an insert on the
// immediate path, a status update on the confirmation path.
type persistFunc func(ctx context.Context, tx domain.Tx, t *domain.Transaction) error

func insertTransaction(ctx context.Context, tx domain.Tx, t *domain.Transaction) error {
	return tx.InsertTransaction(ctx, t)
}

func writeStatus(ctx context.Context, tx domain.Tx, t *domain.Transaction) error {
	return tx.UpdateTransactionStatus(ctx, t)
}

// applyTransfer debits origin, credits destination and persists both accounts and
// the transaction through the same atomic handle. origin and destination must be
// the copies locked by tx; on error the enclosing scope rolls everything back.
func applyTransfer(ctx context.Context, tx domain.Tx, t *domain.Transaction, origin, destination *domain.Account, persist persistFunc) error {
	if origin.ID == destination.ID {
		return domain.NewError(domain.KindInvalidRequest, errSameAccount)
	}

	if !origin.HasFunds(t.Amount) {
		return domain.NewError(domain.KindInsufficientFunds, errInsufficientFunds)
	}

	origin.Debit(t.Amount)
	destination.Credit(t.Amount)
	origin.UpdatedAt = t.UpdatedAt
	destination.UpdatedAt = t.UpdatedAt

	if err := tx.SaveAccounts(ctx, origin, destination); err != nil {
		return fmt.Errorf("save balances: %w", err)
	}

	if err := persist(ctx, tx, t); err != nil {
		return fmt.Errorf("persist transaction %s: %w", t.ID, err)
	}

	return nil
}

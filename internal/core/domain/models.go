package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusRejected  TransactionStatus = "rejected"
)

// IsTerminal reports whether no further status change is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// ParseTargetStatus accepts only the statuses a pending transaction can move to.
func ParseTargetStatus(raw string) (TransactionStatus, bool) {
	switch TransactionStatus(raw) {
	case StatusConfirmed, StatusRejected:
		return TransactionStatus(raw), true
	}
	return "", false
}

// Account represents a ledger holder and its balance
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Transaction represents a directed movement of money between two accounts.
// Accounts are referenced by id only.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	OriginID      uuid.UUID         `json:"originId"`
	DestinationID uuid.UUID         `json:"destinationId"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Touches reports whether the account takes part in the transaction on either side.
func (t Transaction) Touches(accountID uuid.UUID) bool {
	return t.OriginID == accountID || t.DestinationID == accountID
}

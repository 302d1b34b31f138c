package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for balances and amounts.
const MoneyScale = 2

// LargeTransferThreshold is the amount above which a transfer waits for manual approval.
var LargeTransferThreshold = decimal.NewFromInt(50000)

// NormalizeAmount rounds a value to the stored scale so comparisons match persisted values.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RequiresApproval reports whether a transfer of this amount must be parked as pending.
func RequiresApproval(amount decimal.Decimal) bool {
	return amount.GreaterThan(LargeTransferThreshold)
}

// HasFunds reports whether the account can cover the amount
func (a Account) HasFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance. Callers check funds first.
func (a *Account) Debit(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

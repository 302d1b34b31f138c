package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the transport layer can map it to an outward status.
type ErrorKind string

const (
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindInvalidStatus      ErrorKind = "invalid_status"
	KindNotFound           ErrorKind = "not_found"
	KindInsufficientFunds  ErrorKind = "insufficient_funds"
	KindAlreadyFinalized   ErrorKind = "already_finalized"
	KindBusy               ErrorKind = "busy"
	KindDuplicateAccount   ErrorKind = "duplicate_account"
	KindPersistenceFailure ErrorKind = "persistence_failure"
)

// Error is the structured failure returned by the ledger core.
type Error struct {
	Kind    ErrorKind
	Message string
	// CurrentStatus is set when the failure is about a transaction's existing state.
	CurrentStatus TransactionStatus
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels such as ErrBusy regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels, for use with errors.Is.
var (
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrInvalidStatus      = &Error{Kind: KindInvalidStatus}
	ErrAccountNotFound    = &Error{Kind: KindNotFound}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds}
	ErrAlreadyFinalized   = &Error{Kind: KindAlreadyFinalized}
	ErrBusy               = &Error{Kind: KindBusy}
	ErrDuplicateAccount   = &Error{Kind: KindDuplicateAccount}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure}
)

// Store level sentinels. The ledger core translates them into *Error values.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// PersistenceFailure wraps a store error raised inside an atomic scope.
func PersistenceFailure(err error) *Error {
	return &Error{Kind: KindPersistenceFailure, Message: "could not persist changes", Err: err}
}

// AlreadyFinalized reports a status change attempted on a terminal transaction.
func AlreadyFinalized(current TransactionStatus) *Error {
	return &Error{
		Kind:          KindAlreadyFinalized,
		Message:       fmt.Sprintf("transaction was already %s and cannot be modified", current),
		CurrentStatus: current,
	}
}

// KindOf returns the kind of a ledger error, or KindPersistenceFailure for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceFailure
}

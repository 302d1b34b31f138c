package ledger

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

type CreateAccountInput struct {
	Name    string
	Email   string
	Balance decimal.Decimal
}

// CreateAccount seeds a new account with an opening balance.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "email is not valid")
	}
	if in.Balance.IsNegative() {
		return nil, domain.NewError(domain.KindInvalidRequest, "balance cannot be negative")
	}

	now := s.now()
	account := &domain.Account{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Balance:   domain.NormalizeAmount(in.Balance),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewError(domain.KindDuplicateAccount, "an account with this email already exists")
		}
		return nil, domain.PersistenceFailure(err)
	}

	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.store.FindAccounts(ctx)
	if err != nil {
		return nil, domain.PersistenceFailure(err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NewError(domain.KindNotFound, "account not found")
	}

	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, "account not found")
	}
	return account, nil
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/user"
	"github.com/terangapay-ledger/internal/engine"
	"github.com/terangapay-ledger/internal/validation"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	runner   engine.TxRunner
	users    user.Repository
	accounts account.Repository
}

// NewAccountService creates a new account service
func NewAccountService(runner engine.TxRunner, users user.Repository, accounts account.Repository) AccountService {
	return &AccountServiceImpl{
		runner:   runner,
		users:    users,
		accounts: accounts,
	}
}

// OnboardUser creates a user and their account in one store transaction, so a
// user never exists without an account
func (s *AccountServiceImpl) OnboardUser(ctx context.Context, name, phoneNumber, email, roleName string, initialBalance, ceiling decimal.Decimal, currency string) (*user.User, *account.Account, error) {
	if err := validation.PhoneNumber("phone_number", phoneNumber); err != nil {
		return nil, nil, err
	}

	role, err := user.ParseRole(roleName)
	if err != nil {
		return nil, nil, err
	}

	u, err := user.NewUser(name, phoneNumber, email, role)
	if err != nil {
		return nil, nil, err
	}

	acc, err := account.NewAccount(u.ID, initialBalance, ceiling, currency)
	if err != nil {
		return nil, nil, err
	}

	err = s.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		return s.accounts.WithTx(tx).Create(ctx, acc)
	})
	if err != nil {
		return nil, nil, err
	}

	return u, acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

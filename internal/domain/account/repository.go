package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Account, error)

	// DebitBalance atomically decrements the balance in a single conditional
	// update (balance >= amount). Returns ErrInsufficientFunds when the
	// condition does not hold and the account exists.
	DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error)

	// CreditBalance atomically increments the balance in a single conditional
	// update (balance + amount <= ceiling). Returns ErrCeilingExceeded when
	// the condition does not hold and the account exists.
	CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target carries a nil ID
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateAccount indicates the owning user already has an account
type ErrDuplicateAccount struct {
	UserID uuid.UUID
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists for user: " + e.UserID.String()
}

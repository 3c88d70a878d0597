package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrCeilingExceeded       = errors.New("balance ceiling exceeded")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidCeiling        = errors.New("ceiling must be positive")
	ErrInvalidCurrencyFormat = errors.New("currency code cannot be empty")
)

// Account holds the balance for a single user. Balance stays within
// [0, Ceiling] after every committed operation; mutations go through the
// ledger's atomic debit/credit, never through direct assignment.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Ceiling   decimal.Decimal `json:"ceiling"` // "plafond": maximum legal balance
	Currency  string          `json:"currency"`
	Version   int             `json:"version"` // For optimistic locking
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates a new account owned by the given user
func NewAccount(userID uuid.UUID, initialBalance, ceiling decimal.Decimal, currency string) (*Account, error) {
	if currency == "" {
		return nil, ErrInvalidCurrencyFormat
	}
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if ceiling.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidCeiling
	}
	if initialBalance.GreaterThan(ceiling) {
		return nil, ErrCeilingExceeded
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   initialBalance,
		Ceiling:   ceiling,
		Currency:  currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credit adds the specified amount to the account balance, enforcing the ceiling
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.Balance.Add(amount).GreaterThan(a.Ceiling) {
		return ErrCeilingExceeded
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the specified amount from the account balance
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit.
// Advisory only: the store-level conditional update is the enforcement point.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

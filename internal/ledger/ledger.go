// Package ledger owns balance arithmetic for the mobile-money system. Every
// balance mutation in the repository goes through Debit or Credit here, each
// backed by a single conditional update at the store so concurrent operations
// on one account serialize correctly and never observe stale balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/user"
)

// ErrLedgerUnavailable wraps store failures that are not business rejections.
// Safe to retry only when no mutation has been attempted yet.
var ErrLedgerUnavailable = errors.New("ledger store unavailable")

// ErrParticipantNotFound indicates that one side of an operation could not be
// resolved to an account, naming which side is missing
type ErrParticipantNotFound struct {
	Side        string // "sender" or "receiver"
	PhoneNumber string
}

func (e ErrParticipantNotFound) Error() string {
	return e.Side + " account not found: " + e.PhoneNumber
}

// Is matches any ErrParticipantNotFound when the target carries no phone number
func (e ErrParticipantNotFound) Is(target error) bool {
	t, ok := target.(ErrParticipantNotFound)
	if !ok {
		return false
	}
	if t.PhoneNumber == "" {
		return true
	}
	return e.PhoneNumber == t.PhoneNumber && e.Side == t.Side
}

// Participant pairs a resolved user with their account
type Participant struct {
	User    *user.User
	Account *account.Account
}

// Ledger provides atomic debit/credit primitives and participant resolution
type Ledger struct {
	accounts account.Repository
	users    user.Repository
	logger   *slog.Logger
}

// New creates a Ledger over the given repositories
func New(logger *slog.Logger, accounts account.Repository, users user.Repository) *Ledger {
	return &Ledger{
		accounts: accounts,
		users:    users,
		logger:   logger,
	}
}

// WithTx binds the ledger to a store transaction so balance mutations share
// an atomic unit with record writes
func (l *Ledger) WithTx(tx pgx.Tx) *Ledger {
	return &Ledger{
		accounts: l.accounts.WithTx(tx),
		users:    l.users.WithTx(tx),
		logger:   l.logger,
	}
}

// Debit atomically decrements the account balance. The conditional update at
// the store is the enforcement point for insufficient funds; any pre-check a
// caller performed is advisory only.
func (l *Ledger) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	acc, err := l.accounts.DebitBalance(ctx, accountID, amount)
	if err != nil {
		return nil, l.classify("debit", accountID, err)
	}

	l.logger.Info("Account debited",
		"account_id", accountID.String(),
		"amount", amount.String(),
		"new_balance", acc.Balance.String(),
	)
	return acc, nil
}

// Credit atomically increments the account balance, enforcing the ceiling
func (l *Ledger) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	acc, err := l.accounts.CreditBalance(ctx, accountID, amount)
	if err != nil {
		return nil, l.classify("credit", accountID, err)
	}

	l.logger.Info("Account credited",
		"account_id", accountID.String(),
		"amount", amount.String(),
		"new_balance", acc.Balance.String(),
	)
	return acc, nil
}

// ResolveParticipant resolves a phone number to its user and account
func (l *Ledger) ResolveParticipant(ctx context.Context, side, phoneNumber string) (*Participant, error) {
	u, err := l.users.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, ErrParticipantNotFound{Side: side, PhoneNumber: phoneNumber}
		}
		return nil, fmt.Errorf("%w: resolving %s %s: %v", ErrLedgerUnavailable, side, phoneNumber, err)
	}

	acc, err := l.accounts.GetByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, ErrParticipantNotFound{Side: side, PhoneNumber: phoneNumber}
		}
		return nil, fmt.Errorf("%w: resolving account for %s %s: %v", ErrLedgerUnavailable, side, phoneNumber, err)
	}

	return &Participant{User: u, Account: acc}, nil
}

// ResolveParticipants validates both legs of an operation before any
// mutation is attempted, so a transfer never partially validates
func (l *Ledger) ResolveParticipants(ctx context.Context, senderPhone, receiverPhone string) (*Participant, *Participant, error) {
	sender, err := l.ResolveParticipant(ctx, "sender", senderPhone)
	if err != nil {
		return nil, nil, err
	}

	receiver, err := l.ResolveParticipant(ctx, "receiver", receiverPhone)
	if err != nil {
		return nil, nil, err
	}

	return sender, receiver, nil
}

// classify maps repository errors onto the ledger taxonomy: business
// rejections pass through untouched, everything else is a store failure
func (l *Ledger) classify(op string, accountID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, account.ErrCeilingExceeded),
		errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrAccountNotFound{}):
		return err
	default:
		l.logger.Error("Ledger store failure",
			"operation", op,
			"account_id", accountID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s on account %s: %v", ErrLedgerUnavailable, op, accountID.String(), err)
	}
}

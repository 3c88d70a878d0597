package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/domain/user"
	"github.com/terangapay-ledger/internal/transfer"
	"github.com/terangapay-ledger/internal/validation"
)

// AccountService defines the interface for onboarding and account lookups
type AccountService interface {
	// OnboardUser creates a user and their account in one atomic unit
	// Returns user.ErrDuplicatePhoneNumber if the phone number is taken
	OnboardUser(ctx context.Context, name, phoneNumber, email, role string, initialBalance, ceiling decimal.Decimal, currency string) (*user.User, *account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns account.ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TransactionService defines the interface for money movement operations.
// Every method validates its inputs before touching the ledger; validation
// failures come back as validation.ValidationError.
type TransactionService interface {
	// Deposit credits the receiver and debits the sender the amount plus fee
	Deposit(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error)

	// Withdraw debits the sender the amount plus fee and credits the receiver
	Withdraw(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error)

	// Purchase debits the sender for a credit purchase whose receiver is an
	// off-ledger contact
	Purchase(ctx context.Context, senderPhone string, amount, fee decimal.Decimal, currency string, contact validation.PurchaseContact, correlationID string) (*transaction.Transaction, error)

	// Transfer moves amount between two accounts as a SEND/RECEIVE pair
	// Returns *transfer.PartialTransferFailure when only the first leg committed
	Transfer(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transfer.Result, error)

	// GetTransaction retrieves a transaction by its ID
	// Returns transaction.ErrTransactionNotFound if it doesn't exist
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// ListTransactions returns one page of transactions plus the total count
	ListTransactions(ctx context.Context, page, limit int, timeFrame transaction.TimeFrame, userID *uuid.UUID) ([]*transaction.Transaction, int64, error)
}

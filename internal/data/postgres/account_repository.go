// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the mobile-money ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/platform/persistence"
)

const accountColumns = "id, user_id, balance, ceiling, currency, version, created_at, updated_at"

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so that balance mutations
// and record writes can share one atomic unit
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account in the database
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, balance, ceiling, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.UserID,
		acc.Balance,
		acc.Ceiling,
		acc.Currency,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByUserID retrieves the account owned by the given user
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to get account by user ID", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get account by user ID: %w", err)
	}

	return acc, nil
}

// GetByPhoneNumber retrieves the account whose owner holds the given phone number
func (r *AccountRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*account.Account, error) {
	query := `
		SELECT a.id, a.user_id, a.balance, a.ceiling, a.currency, a.version, a.created_at, a.updated_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.phone_number = $1
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to get account by phone number", "phone_number", phoneNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by phone number: %w", err)
	}

	return acc, nil
}

// DebitBalance decrements the balance in a single conditional update. The
// balance predicate in the WHERE clause is the enforcement point for the
// insufficient-funds rule: two concurrent debits serialize at the row and
// the loser observes the already-decremented balance.
func (r *AccountRepository) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, account.ErrInvalidAmount
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING ` + accountColumns

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, amount, id))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to debit account balance", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to debit account balance: %w", err)
	}

	// Condition did not hold: distinguish a missing account from insufficient funds
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, account.ErrInsufficientFunds
}

// CreditBalance increments the balance in a single conditional update, with
// the ceiling predicate as the enforcement point for the ceiling rule
func (r *AccountRepository) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, account.ErrInvalidAmount
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 <= ceiling
		RETURNING ` + accountColumns

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, amount, id))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to credit account balance", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to credit account balance: %w", err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, account.ErrCeilingExceeded
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.UserID,
		&acc.Balance,
		&acc.Ceiling,
		&acc.Currency,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

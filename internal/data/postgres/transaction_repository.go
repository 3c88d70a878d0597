package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/platform/persistence"
)

const transactionColumns = "id, transfer_id, sender_id, receiver_id, amount, fee_amount, currency, type, status, created_at, updated_at"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create persists a transaction row and, for PURCHASE, its credit-purchase
// details. Callers needing atomicity across both inserts bind the repository
// to a store transaction via WithTx.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, transfer_id, sender_id, receiver_id, amount, fee_amount, currency, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.TransferID,
		txn.SenderID,
		txn.ReceiverID,
		txn.Amount,
		txn.FeeAmount,
		txn.Currency,
		txn.Type,
		txn.Status,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if txn.Purchase != nil {
		detailsQuery := `
			INSERT INTO credit_purchase_details (transaction_id, receiver_name, receiver_phone_number, receiver_email)
			VALUES ($1, $2, $3, $4)
		`
		_, err = r.querier.Exec(ctx, detailsQuery,
			txn.ID,
			txn.Purchase.ReceiverName,
			txn.Purchase.ReceiverPhoneNumber,
			txn.Purchase.ReceiverEmail,
		)
		if err != nil {
			r.logger.Error("Failed to create credit purchase details", "transaction_id", txn.ID.String(), "error", err)
			return fmt.Errorf("failed to create credit purchase details: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a transaction with its credit-purchase details, if any
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if txn.Type == transaction.TypePurchase {
		detailsQuery := `
			SELECT transaction_id, receiver_name, receiver_phone_number, receiver_email
			FROM credit_purchase_details
			WHERE transaction_id = $1
		`
		var details transaction.CreditPurchaseDetails
		err := r.querier.QueryRow(ctx, detailsQuery, id).Scan(
			&details.TransactionID,
			&details.ReceiverName,
			&details.ReceiverPhoneNumber,
			&details.ReceiverEmail,
		)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("Failed to get credit purchase details", "transaction_id", id.String(), "error", err)
			return nil, fmt.Errorf("failed to get credit purchase details: %w", err)
		}
		if err == nil {
			txn.Purchase = &details
		}
	}

	return txn, nil
}

// GetByTransferID returns both legs of a transfer ordered by creation time,
// so the SEND leg comes first
func (r *TransactionRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transfer_id = $1 ORDER BY created_at ASC`

	rows, err := r.querier.Query(ctx, query, transferID)
	if err != nil {
		r.logger.Error("Failed to get transfer legs", "transfer_id", transferID.String(), "error", err)
		return nil, fmt.Errorf("failed to get transfer legs: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

// UpdateStatus transitions a PENDING transaction to the given status. The
// status predicate makes terminal statuses immutable: once COMPLETED, FAILED
// or CANCELLED, no further transition is possible.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, status, id, transaction.StatusPending)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return transaction.ErrStatusFinal{TransactionID: id, Status: existing.Status}
	}

	return nil
}

// List returns one page of transactions matching the filter, newest first,
// with the total count across all pages
func (r *TransactionRepository) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND (sender_id = $%d OR receiver_id = $%d)", argPos, argPos)
		args = append(args, *filter.UserID)
		argPos++
	}
	if !filter.Since.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, filter.Since)
		argPos++
	}

	countQuery := "SELECT COUNT(*) FROM transactions " + where
	var total int64
	if err := r.querier.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count transactions", "error", err)
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		transactionColumns, where, argPos, argPos+1,
	)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.querier.Query(ctx, listQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := r.collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// ListStalePending returns PENDING transactions created before olderThan,
// oldest first, for the reconciliation poller
func (r *TransactionRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, transaction.StatusPending, olderThan, limit)
	if err != nil {
		r.logger.Error("Failed to list stale pending transactions", "error", err)
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

func (r *TransactionRepository) collectTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var transactions []*transaction.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction row", "error", err)
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.TransferID,
		&txn.SenderID,
		&txn.ReceiverID,
		&txn.Amount,
		&txn.FeeAmount,
		&txn.Currency,
		&txn.Type,
		&txn.Status,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

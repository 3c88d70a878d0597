package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terangapay-ledger/internal/domain/transaction"
)

var transactionRows = []string{"id", "transfer_id", "sender_id", "receiver_id", "amount", "fee_amount", "currency", "type", "status", "created_at", "updated_at"}

func pendingTransaction() *transaction.Transaction {
	senderID := uuid.New()
	receiverID := uuid.New()
	now := time.Now()
	return &transaction.Transaction{
		ID:         uuid.New(),
		SenderID:   &senderID,
		ReceiverID: &receiverID,
		Amount:     decimal.NewFromInt(95),
		FeeAmount:  decimal.NewFromInt(5),
		Currency:   "FCFA",
		Type:       transaction.TypeSend,
		Status:     transaction.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	insertQuery := `
		INSERT INTO transactions \(id, transfer_id, sender_id, receiver_id, amount, fee_amount, currency, type, status, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11\)
	`

	t.Run("standard transaction", func(t *testing.T) {
		txn := pendingTransaction()

		mock.ExpectExec(insertQuery).
			WithArgs(txn.ID, txn.TransferID, txn.SenderID, txn.ReceiverID, txn.Amount, txn.FeeAmount, txn.Currency, txn.Type, txn.Status, txn.CreatedAt, txn.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("purchase writes its details row", func(t *testing.T) {
		txn := pendingTransaction()
		txn.Type = transaction.TypePurchase
		txn.ReceiverID = nil
		txn.Purchase = &transaction.CreditPurchaseDetails{
			TransactionID:       txn.ID,
			ReceiverName:        "Awa Diop",
			ReceiverPhoneNumber: "+221771234567",
		}

		mock.ExpectExec(insertQuery).
			WithArgs(txn.ID, txn.TransferID, txn.SenderID, txn.ReceiverID, txn.Amount, txn.FeeAmount, txn.Currency, txn.Type, txn.Status, txn.CreatedAt, txn.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO credit_purchase_details`).
			WithArgs(txn.ID, txn.Purchase.ReceiverName, txn.Purchase.ReceiverPhoneNumber, txn.Purchase.ReceiverEmail).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		txn := pendingTransaction()
		expectedErr := errors.New("db error")

		mock.ExpectExec(insertQuery).
			WithArgs(txn.ID, txn.TransferID, txn.SenderID, txn.ReceiverID, txn.Amount, txn.FeeAmount, txn.Currency, txn.Type, txn.Status, txn.CreatedAt, txn.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, txn)
		assert.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	txnID := uuid.New()

	updateQuery := `
		UPDATE transactions
		SET status = \$1, updated_at = NOW\(\)
		WHERE id = \$2 AND status = \$3
	`
	selectQuery := `SELECT id, transfer_id, sender_id, receiver_id, amount, fee_amount, currency, type, status, created_at, updated_at FROM transactions WHERE id = \$1`

	t.Run("pending to completed", func(t *testing.T) {
		mock.ExpectExec(updateQuery).
			WithArgs(transaction.StatusCompleted, txnID, transaction.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, txnID, transaction.StatusCompleted)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal status is immutable", func(t *testing.T) {
		mock.ExpectExec(updateQuery).
			WithArgs(transaction.StatusCancelled, txnID, transaction.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		senderID := uuid.New()
		receiverID := uuid.New()
		rows := pgxmock.NewRows(transactionRows).
			AddRow(txnID, nil, &senderID, &receiverID, decimal.NewFromInt(95), decimal.NewFromInt(5), "FCFA", transaction.TypeSend, transaction.StatusCompleted, time.Now(), time.Now())
		mock.ExpectQuery(selectQuery).WithArgs(txnID).WillReturnRows(rows)

		err := repo.UpdateStatus(ctx, txnID, transaction.StatusCancelled)
		assert.ErrorIs(t, err, transaction.ErrStatusFinal{})
		var statusErr transaction.ErrStatusFinal
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, transaction.StatusCompleted, statusErr.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing transaction", func(t *testing.T) {
		mock.ExpectExec(updateQuery).
			WithArgs(transaction.StatusCompleted, txnID, transaction.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(selectQuery).WithArgs(txnID).WillReturnError(pgx.ErrNoRows)

		err := repo.UpdateStatus(ctx, txnID, transaction.StatusCompleted)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{TransactionID: txnID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_List(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	t.Run("filters by user on either side", func(t *testing.T) {
		userID := uuid.New()
		receiverID := uuid.New()
		txnID := uuid.New()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE 1=1 AND \(sender_id = \$1 OR receiver_id = \$1\)`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))

		rows := pgxmock.NewRows(transactionRows).
			AddRow(txnID, nil, &userID, &receiverID, decimal.NewFromInt(95), decimal.NewFromInt(5), "FCFA", transaction.TypeSend, transaction.StatusCompleted, time.Now(), time.Now())
		mock.ExpectQuery(`SELECT .+ FROM transactions WHERE 1=1 AND \(sender_id = \$1 OR receiver_id = \$1\) ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(userID, 10, 10).
			WillReturnRows(rows)

		items, total, err := repo.List(ctx, transaction.ListFilter{Page: 2, Limit: 10, UserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, int64(11), total)
		require.Len(t, items, 1)
		assert.Equal(t, txnID, items[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies the time window", func(t *testing.T) {
		since := time.Now().AddDate(0, 0, -6)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE 1=1 AND created_at >= \$1`).
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(`SELECT .+ FROM transactions WHERE 1=1 AND created_at >= \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(since, 10, 0).
			WillReturnRows(pgxmock.NewRows(transactionRows))

		items, total, err := repo.List(ctx, transaction.ListFilter{Page: 1, Limit: 10, Since: since})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ListStalePending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	cutoff := time.Now().Add(-15 * time.Minute)
	txnID := uuid.New()
	senderID := uuid.New()
	receiverID := uuid.New()

	rows := pgxmock.NewRows(transactionRows).
		AddRow(txnID, nil, &senderID, &receiverID, decimal.NewFromInt(95), decimal.NewFromInt(5), "FCFA", transaction.TypeSend, transaction.StatusPending, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour))
	mock.ExpectQuery(`FROM transactions\s+WHERE status = \$1 AND created_at < \$2\s+ORDER BY created_at ASC\s+LIMIT \$3`).
		WithArgs(transaction.StatusPending, cutoff, 100).
		WillReturnRows(rows)

	stale, err := repo.ListStalePending(ctx, cutoff, 100)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, txnID, stale[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

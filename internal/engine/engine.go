// Package engine orchestrates single money movements: it validates
// participants through the ledger, applies balance mutations in a fixed
// order per operation type, and records the transaction with its status
// lifecycle. Balance mutation always happens before the terminal status is
// written, so a reader never observes COMPLETED with stale balances.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/shared"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/ledger"
	"github.com/terangapay-ledger/internal/platform/clock"
	"github.com/terangapay-ledger/internal/platform/messaging/producers"
)

// StatusUpdateFailedError reports a transaction whose balance mutation
// committed but whose record never reached COMPLETED. The movement is real;
// the record is stale. Callers must reconcile, never retry: a retry would
// debit or credit a second time.
type StatusUpdateFailedError struct {
	Transaction *transaction.Transaction
	Err         error
}

func (e *StatusUpdateFailedError) Error() string {
	return fmt.Sprintf("balances mutated but transaction %s was not completed: %v", e.Transaction.ID.String(), e.Err)
}

func (e *StatusUpdateFailedError) Unwrap() error { return e.Err }

// TxRunner runs a function inside one store transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Command describes one money movement to apply
type Command struct {
	Type          transaction.Type
	SenderPhone   string
	ReceiverPhone string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Currency      string
	TransferID    *uuid.UUID // set on SEND/RECEIVE legs of a transfer
	CorrelationID string
}

// Engine applies commands against the ledger and the transaction store
type Engine struct {
	runner       TxRunner
	ledger       *ledger.Ledger
	transactions transaction.Repository
	events       producers.MessagePublisher // may be nil: events disabled
	clock        clock.Clock
	fees         FeePolicy
	logger       *slog.Logger
}

// New creates a transaction engine with explicit dependencies
func New(
	logger *slog.Logger,
	runner TxRunner,
	l *ledger.Ledger,
	transactions transaction.Repository,
	events producers.MessagePublisher,
	clk clock.Clock,
	fees FeePolicy,
) *Engine {
	return &Engine{
		runner:       runner,
		ledger:       l,
		transactions: transactions,
		events:       events,
		clock:        clk,
		fees:         fees,
		logger:       logger,
	}
}

// Fees exposes the engine's fee policy to callers that compute fees up front
func (e *Engine) Fees() FeePolicy { return e.fees }

// Ledger exposes participant resolution to callers that validate before
// issuing commands
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Apply executes one DEPOSIT, WITHDRAW, SEND or RECEIVE movement.
// PURCHASE goes through ApplyPurchase, which runs in a store transaction.
//
// The flow is: resolve both participants, consult the role policy, apply
// balance mutations in the fixed per-type order, persist a PENDING record
// (amount net of fee), then complete it. A failure after mutation surfaces
// as *StatusUpdateFailedError so callers reconcile instead of retrying.
func (e *Engine) Apply(ctx context.Context, cmd Command) (*transaction.Transaction, error) {
	logger := e.logger
	if cmd.CorrelationID != "" {
		logger = e.logger.With("correlation_id", cmd.CorrelationID)
	}

	if cmd.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, account.ErrInvalidAmount
	}
	if cmd.Type == transaction.TypePurchase {
		return nil, transaction.ErrInvalidType
	}

	sender, receiver, err := e.ledger.ResolveParticipants(ctx, cmd.SenderPhone, cmd.ReceiverPhone)
	if err != nil {
		return nil, err
	}

	if err := checkPolicy(cmd.Type, sender.User.Role, "sender"); err != nil {
		logger.Warn("Sender role rejected", "type", string(cmd.Type), "role", string(sender.User.Role))
		return nil, err
	}
	if err := checkPolicy(cmd.Type, receiver.User.Role, "receiver"); err != nil {
		logger.Warn("Receiver role rejected", "type", string(cmd.Type), "role", string(receiver.User.Role))
		return nil, err
	}

	total := cmd.Amount.Add(cmd.Fee)

	// Advisory pre-check: fails fast with a precise error before any work.
	// The conditional debit below re-validates atomically, since the balance
	// may change between check and mutation under concurrency.
	if cmd.Type == transaction.TypeSend && !sender.Account.CanDebit(total) {
		return nil, account.ErrInsufficientFunds
	}

	if err := e.mutateBalances(ctx, logger, cmd, sender, receiver, total); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	rec := &transaction.Transaction{
		ID:         uuid.New(),
		TransferID: cmd.TransferID,
		SenderID:   &sender.User.ID,
		ReceiverID: &receiver.User.ID,
		Amount:     cmd.Amount.Sub(cmd.Fee),
		FeeAmount:  cmd.Fee,
		Currency:   cmd.Currency,
		Type:       cmd.Type,
		Status:     transaction.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.transactions.Create(ctx, rec); err != nil {
		logger.Error("Balances mutated but transaction record could not be written",
			"transaction_id", rec.ID.String(),
			"type", string(cmd.Type),
			"error", err,
		)
		return rec, &StatusUpdateFailedError{Transaction: rec, Err: err}
	}

	if err := e.transactions.UpdateStatus(ctx, rec.ID, transaction.StatusCompleted); err != nil {
		logger.Error("Transaction left PENDING: terminal status write failed after balance mutation",
			"transaction_id", rec.ID.String(),
			"type", string(cmd.Type),
			"error", err,
		)
		return rec, &StatusUpdateFailedError{Transaction: rec, Err: err}
	}
	rec.Status = transaction.StatusCompleted
	rec.UpdatedAt = e.clock.Now()

	logger.Info("Transaction completed",
		"transaction_id", rec.ID.String(),
		"type", string(cmd.Type),
		"amount", cmd.Amount.String(),
		"fee", cmd.Fee.String(),
	)

	e.publishEvent(ctx, rec, cmd.CorrelationID)
	return rec, nil
}

// mutateBalances applies the per-type mutation order:
//
//	SEND/WITHDRAW: debit sender amount+fee; WITHDRAW also credits receiver amount.
//	DEPOSIT: credit receiver amount, then debit sender amount+fee.
//	RECEIVE: credit the first-named participant. A RECEIVE records money
//	arriving at an account, so the beneficiary appears on the sender side of
//	the record, mirroring the SEND leg of the transfer it belongs to.
//
// The fee is charged once, on the debit side. When the second mutation of a
// pair fails, the first is reversed so no money is silently created or
// destroyed; a failed reversal is flagged for reconciliation.
func (e *Engine) mutateBalances(ctx context.Context, logger *slog.Logger, cmd Command, sender, receiver *ledger.Participant, total decimal.Decimal) error {
	switch cmd.Type {
	case transaction.TypeSend:
		_, err := e.ledger.Debit(ctx, sender.Account.ID, total)
		return err

	case transaction.TypeWithdraw:
		if _, err := e.ledger.Debit(ctx, sender.Account.ID, total); err != nil {
			return err
		}
		if _, err := e.ledger.Credit(ctx, receiver.Account.ID, cmd.Amount); err != nil {
			e.reverse(ctx, logger, cmd, "credit sender back", func() error {
				_, revErr := e.ledger.Credit(ctx, sender.Account.ID, total)
				return revErr
			})
			return err
		}
		return nil

	case transaction.TypeReceive:
		_, err := e.ledger.Credit(ctx, sender.Account.ID, cmd.Amount)
		return err

	case transaction.TypeDeposit:
		if _, err := e.ledger.Credit(ctx, receiver.Account.ID, cmd.Amount); err != nil {
			return err
		}
		if _, err := e.ledger.Debit(ctx, sender.Account.ID, total); err != nil {
			e.reverse(ctx, logger, cmd, "debit receiver back", func() error {
				_, revErr := e.ledger.Debit(ctx, receiver.Account.ID, cmd.Amount)
				return revErr
			})
			return err
		}
		return nil

	default:
		return transaction.ErrInvalidType
	}
}

// reverse undoes the first mutation of a pair after the second failed
func (e *Engine) reverse(ctx context.Context, logger *slog.Logger, cmd Command, step string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error("Reversal failed after partial mutation, manual reconciliation required",
			"type", string(cmd.Type),
			"step", step,
			"sender_phone", cmd.SenderPhone,
			"receiver_phone", cmd.ReceiverPhone,
			"amount", cmd.Amount.String(),
			"error", err,
		)
		return
	}
	logger.Warn("Partial mutation reversed",
		"type", string(cmd.Type),
		"step", step,
		"amount", cmd.Amount.String(),
	)
}

// ApplyPurchase executes a credit purchase: the receiver is an off-ledger
// contact, so only the sender is debited. Record creation, purchase details
// and the debit share one store transaction, making the whole operation
// all-or-nothing.
func (e *Engine) ApplyPurchase(ctx context.Context, senderPhone string, amount, fee decimal.Decimal, currency string, details transaction.CreditPurchaseDetails, correlationID string) (*transaction.Transaction, error) {
	logger := e.logger
	if correlationID != "" {
		logger = e.logger.With("correlation_id", correlationID)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, account.ErrInvalidAmount
	}

	sender, err := e.ledger.ResolveParticipant(ctx, "sender", senderPhone)
	if err != nil {
		return nil, err
	}
	if err := checkPolicy(transaction.TypePurchase, sender.User.Role, "sender"); err != nil {
		logger.Warn("Sender role rejected for purchase", "role", string(sender.User.Role))
		return nil, err
	}

	total := amount.Add(fee)
	if !sender.Account.CanDebit(total) {
		return nil, account.ErrInsufficientFunds
	}

	var rec *transaction.Transaction
	err = e.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		ledgerTx := e.ledger.WithTx(tx)
		transactionsTx := e.transactions.WithTx(tx)

		now := e.clock.Now()
		rec = &transaction.Transaction{
			ID:        uuid.New(),
			SenderID:  &sender.User.ID,
			Amount:    amount.Sub(fee),
			FeeAmount: fee,
			Currency:  currency,
			Type:      transaction.TypePurchase,
			Status:    transaction.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		rec.Purchase = &transaction.CreditPurchaseDetails{
			TransactionID:       rec.ID,
			ReceiverName:        details.ReceiverName,
			ReceiverPhoneNumber: details.ReceiverPhoneNumber,
			ReceiverEmail:       details.ReceiverEmail,
		}

		if err := transactionsTx.Create(ctx, rec); err != nil {
			return err
		}
		if _, err := ledgerTx.Debit(ctx, sender.Account.ID, total); err != nil {
			return err
		}
		if err := transactionsTx.UpdateStatus(ctx, rec.ID, transaction.StatusCompleted); err != nil {
			return err
		}
		rec.Status = transaction.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Purchase completed",
		"transaction_id", rec.ID.String(),
		"amount", amount.String(),
		"fee", fee.String(),
	)

	e.publishEvent(ctx, rec, correlationID)
	return rec, nil
}

// GetTransaction retrieves a transaction by ID
func (e *Engine) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return e.transactions.GetByID(ctx, id)
}

// ListTransactions returns one page of transactions, optionally constrained
// to a time frame and a user (matching either side of the movement)
func (e *Engine) ListTransactions(ctx context.Context, page, limit int, timeFrame transaction.TimeFrame, userID *uuid.UUID) ([]*transaction.Transaction, int64, error) {
	filter := transaction.ListFilter{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	}
	if since, ok := timeFrame.Since(e.clock.Now()); ok {
		filter.Since = since
	}
	return e.transactions.List(ctx, filter)
}

// publishEvent emits a TransactionEvent for the completed movement.
// Best effort: a publish failure never fails the already-committed operation.
func (e *Engine) publishEvent(ctx context.Context, rec *transaction.Transaction, correlationID string) {
	if e.events == nil {
		return
	}

	event := &shared.TransactionEvent{
		TransactionID: rec.ID,
		TransferID:    rec.TransferID,
		SenderID:      rec.SenderID,
		ReceiverID:    rec.ReceiverID,
		Type:          string(rec.Type),
		Status:        string(rec.Status),
		Amount:        rec.Amount,
		FeeAmount:     rec.FeeAmount,
		Currency:      rec.Currency,
		CorrelationID: correlationID,
		Timestamp:     e.clock.Now(),
	}

	if err := e.events.Publish(ctx, rec.ID.String(), event); err != nil {
		e.logger.Warn("Failed to publish transaction event",
			"transaction_id", rec.ID.String(),
			"error", err,
		)
	}
}

// IsBusinessRejection reports whether the error is a business-rule rejection
// rather than a fault: such errors are returned to callers as typed results
// and must never be retried by infrastructure.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, account.ErrInsufficientFunds) ||
		errors.Is(err, account.ErrCeilingExceeded) ||
		errors.Is(err, account.ErrInvalidAmount) ||
		errors.Is(err, ErrRoleIneligible{}) ||
		errors.Is(err, ledger.ErrParticipantNotFound{})
}

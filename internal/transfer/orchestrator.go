// Package transfer couples a SEND and a RECEIVE engine call into one
// peer-to-peer transfer. The two legs are independent atomic units, not one
// cross-account transaction; a second-leg failure is surfaced as a
// PartialTransferFailure carrying the committed first leg so an operator can
// compensate instead of retrying.
package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/domain/user"
	"github.com/terangapay-ledger/internal/engine"
)

// PartialTransferFailure reports a transfer whose SEND leg committed but
// whose RECEIVE leg did not. The sender has been debited with no
// corresponding credit recorded. Never retried automatically: a blind retry
// risks a double debit.
type PartialTransferFailure struct {
	TransferID uuid.UUID
	Send       *transaction.Transaction // the committed first leg
	Err        error
}

func (e *PartialTransferFailure) Error() string {
	return fmt.Sprintf("transfer %s: SEND leg %s committed but RECEIVE leg failed: %v",
		e.TransferID.String(), e.Send.ID.String(), e.Err)
}

func (e *PartialTransferFailure) Unwrap() error { return e.Err }

// Result carries both legs of a completed transfer
type Result struct {
	TransferID uuid.UUID
	Send       *transaction.Transaction
	Receive    *transaction.Transaction
}

// Orchestrator issues the two engine calls that make up one transfer
type Orchestrator struct {
	engine *engine.Engine
	logger *slog.Logger
}

func New(logger *slog.Logger, eng *engine.Engine) *Orchestrator {
	return &Orchestrator{
		engine: eng,
		logger: logger,
	}
}

// Transfer moves amount from sender to receiver, charging the sender
// max(floor, rate×amount) on top. Both legs share a TransferID so
// reconciliation can correlate them without heuristics.
//
// Vendors may not be transfer targets; they only receive money through
// DEPOSIT and WITHDRAW flows. The rejection happens before any mutation.
func (o *Orchestrator) Transfer(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*Result, error) {
	logger := o.logger
	if correlationID != "" {
		logger = o.logger.With("correlation_id", correlationID)
	}

	fee := o.engine.Fees().TransferFee(amount)
	transferID := uuid.New()

	if err := o.rejectVendorReceiver(ctx, receiverPhone); err != nil {
		return nil, err
	}

	logger.Info("Transfer started",
		"transfer_id", transferID.String(),
		"amount", amount.String(),
		"fee", fee.String(),
	)

	send, err := o.engine.Apply(ctx, engine.Command{
		Type:          transaction.TypeSend,
		SenderPhone:   senderPhone,
		ReceiverPhone: receiverPhone,
		Amount:        amount,
		Fee:           fee,
		Currency:      currency,
		TransferID:    &transferID,
		CorrelationID: correlationID,
	})
	if err != nil {
		if engine.IsBusinessRejection(err) {
			logger.Warn("Transfer SEND leg rejected, no mutation to compensate",
				"transfer_id", transferID.String(),
				"error", err,
			)
		} else {
			logger.Error("Transfer SEND leg failed, no mutation to compensate",
				"transfer_id", transferID.String(),
				"error", err,
			)
		}
		return nil, err
	}

	// The RECEIVE leg records money arriving at the receiver: the
	// beneficiary is named first and the fee repeats for the record only,
	// the credit itself is the full amount.
	receive, err := o.engine.Apply(ctx, engine.Command{
		Type:          transaction.TypeReceive,
		SenderPhone:   receiverPhone,
		ReceiverPhone: senderPhone,
		Amount:        amount,
		Fee:           fee,
		Currency:      currency,
		TransferID:    &transferID,
		CorrelationID: correlationID,
	})
	if err != nil {
		logger.Error("Transfer RECEIVE leg failed after SEND leg committed, reconciliation required",
			"transfer_id", transferID.String(),
			"send_transaction_id", send.ID.String(),
			"error", err,
		)
		return nil, &PartialTransferFailure{TransferID: transferID, Send: send, Err: err}
	}

	logger.Info("Transfer completed",
		"transfer_id", transferID.String(),
		"send_transaction_id", send.ID.String(),
		"receive_transaction_id", receive.ID.String(),
	)

	return &Result{TransferID: transferID, Send: send, Receive: receive}, nil
}

// rejectVendorReceiver fails the transfer before any work when the target is
// a vendor account
func (o *Orchestrator) rejectVendorReceiver(ctx context.Context, receiverPhone string) error {
	receiver, err := o.engine.Ledger().ResolveParticipant(ctx, "receiver", receiverPhone)
	if err != nil {
		return err
	}
	if receiver.User.Role == user.RoleVendor {
		return engine.ErrRoleIneligible{
			Role:      user.RoleVendor,
			Operation: "TRANSFER",
			Side:      "receiver",
		}
	}
	return nil
}

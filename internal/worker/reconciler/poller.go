// Package reconciler periodically scans for transactions stuck in PENDING.
// A stale PENDING row means a balance mutation committed but the terminal
// status write never landed, or a transfer lost its second leg. The poller
// only flags: it raises operator notifications and logs, and never mutates a
// balance. Retrying a mutation without an idempotency key risks moving money
// twice.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/terangapay-ledger/internal/config"
	"github.com/terangapay-ledger/internal/domain/notification"
	"github.com/terangapay-ledger/internal/domain/transaction"
)

// Poller scans for stale PENDING transactions and flags them for review
type Poller struct {
	transactions  transaction.Repository
	notifications notification.Repository
	logger        *slog.Logger
	pollInterval  time.Duration
	batchSize     int
	staleAfter    time.Duration
}

func NewPoller(
	cfg *config.ReconcilerConfig,
	transactions transaction.Repository,
	notifications notification.Repository,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		transactions:  transactions,
		notifications: notifications,
		logger:        logger,
		pollInterval:  cfg.PollingInterval,
		batchSize:     cfg.BatchSize,
		staleAfter:    cfg.StaleAfter,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting reconciliation poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"stale_after", p.staleAfter.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Reconciliation poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Reconciliation tick: scanning for stale PENDING transactions")
			if err := p.scan(ctx); err != nil {
				p.logger.Error("Error during reconciliation scan", "error", err)
			}
		}
	}
}

func (p *Poller) scan(ctx context.Context) error {
	cutoff := time.Now().Add(-p.staleAfter)
	stale, err := p.transactions.ListStalePending(ctx, cutoff, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list stale PENDING transactions: %w", err)
	}

	if len(stale) == 0 {
		p.logger.Debug("No stale PENDING transactions found.")
		return nil
	}

	p.logger.Warn("Found stale PENDING transactions", "count", len(stale))

	for _, tx := range stale {
		p.flag(ctx, tx)
	}
	return nil
}

// flag reports one stale transaction, correlating its transfer legs when it
// has a TransferID so the operator sees which side committed
func (p *Poller) flag(ctx context.Context, tx *transaction.Transaction) {
	logger := p.logger.With(
		"transaction_id", tx.ID.String(),
		"type", string(tx.Type),
		"created_at", tx.CreatedAt.Format(time.RFC3339),
	)

	message := fmt.Sprintf("Transaction %s (%s) has been PENDING since %s and needs manual review",
		tx.ID.String(), tx.Type, tx.CreatedAt.Format(time.RFC3339))

	if tx.TransferID != nil {
		legs, err := p.transactions.GetByTransferID(ctx, *tx.TransferID)
		if err != nil {
			logger.Error("Failed to correlate transfer legs", "transfer_id", tx.TransferID.String(), "error", err)
		} else {
			message = p.describeTransfer(logger, *tx.TransferID, legs)
		}
	}

	logger.Warn("Flagging stale PENDING transaction", "message", message)

	for _, userID := range participantIDs(tx) {
		n := &notification.Notification{
			ID:            uuid.New(),
			UserID:        userID,
			TransactionID: tx.ID,
			Kind:          notification.KindReconciliation,
			Message:       message,
			Status:        notification.StatusUnread,
			CreatedAt:     time.Now(),
		}
		if err := p.notifications.Create(ctx, n); err != nil {
			logger.Error("Failed to store reconciliation flag", "user_id", userID.String(), "error", err)
		}
	}
}

// describeTransfer summarizes the state of both legs of a transfer for the
// reconciliation message
func (p *Poller) describeTransfer(logger *slog.Logger, transferID uuid.UUID, legs []*transaction.Transaction) string {
	states := make([]string, 0, len(legs))
	for _, leg := range legs {
		states = append(states, fmt.Sprintf("%s leg %s is %s", leg.Type, leg.ID.String(), leg.Status))
	}

	logger.Warn("Transfer with a stale leg",
		"transfer_id", transferID.String(),
		"legs", len(legs),
	)

	msg := fmt.Sprintf("Transfer %s needs manual review:", transferID.String())
	for _, s := range states {
		msg += " " + s + ";"
	}
	if len(legs) < 2 {
		msg += " the second leg was never recorded"
	}
	return msg
}

func participantIDs(tx *transaction.Transaction) []uuid.UUID {
	var ids []uuid.UUID
	if tx.SenderID != nil {
		ids = append(ids, *tx.SenderID)
	}
	if tx.ReceiverID != nil && (tx.SenderID == nil || *tx.ReceiverID != *tx.SenderID) {
		ids = append(ids, *tx.ReceiverID)
	}
	return ids
}
